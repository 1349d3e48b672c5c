// Package notify keeps a live subscription to the "new album" topic and
// turns each message into a short-lived on-screen notification.
//
// A [Channel] owns the connection lifecycle: connect, subscribe, receive,
// and on any loss wait a fixed delay and start over, forever, until
// [Channel.Stop]. Each message is shown in a [Slot], which holds at most
// one [Notification] and clears it after the dwell time unless a newer one
// replaced it first.
//
// Two [Broker] implementations are provided: [StompBroker] (STOMP 1.2 over a
// websocket, with negotiated heart-beats) and [MQTTBroker].
package notify
