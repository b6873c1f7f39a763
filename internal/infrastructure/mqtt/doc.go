// Package mqtt connects Availability Watch to the broker it shares with
// the home-automation platform.
//
// Entity state updates arrive on availwatch/state/+, the assembled report
// is published retained to availwatch/report, and availwatch/system/status
// carries an online message plus a Last Will that flags an ungraceful exit.
//
// The client auto-reconnects with exponential backoff and replays its
// subscriptions after every reconnect. Handler panics are recovered and
// logged so one malformed payload cannot take down a delivery goroutine.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllEntityStates(), 1,
//	    func(topic string, payload []byte) error {
//	        return states.HandleStateMessage(topic, payload)
//	    })
package mqtt
