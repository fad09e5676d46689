package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"

	"github.com/robotalks/ramloader/pkg/framework"
	"github.com/robotalks/ramloader/pkg/report/mqtt"
)

func init() {
	mqtt.SetupFlags()
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	conf := mqtt.Default()
	if conf.BrokerURL == "" {
		log.Fatalln("-mqtt or RAMLOADER_MQTT_URL required")
	}
	q, err := conf.Connect()
	if err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	q.Sub(mqtt.EventsTopic, mqtt.Handler(func(topic string, payload []byte) {
		var ev mqtt.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			log.Printf("%s: bad event: %v", topic, err)
			return
		}
		log.Println(ev.String())
	}))

	runner := framework.NewRunner().HandleSignals()
	runner.Go(framework.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
