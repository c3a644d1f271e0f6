package pkg

import "github.com/prometheus/client_golang/prometheus"

var (
	RoomMembersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_members",
		Help: "A gauge of members currently registered across all rooms.",
	})

	RoomBroadcastsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_broadcasts_total",
		Help: "A counter for broadcasts drained from room outboxes.",
	})

	RoomDeliveriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_deliveries_total",
		Help: "A counter for broadcast deliveries to individual members.",
	})

	RoomSendFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_send_failures_total",
		Help: "A counter for failed broadcast sends that dropped a member.",
	})

	RoomFramesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_frames_total",
		Help: "A counter for inbound frames read by dispatch loops.",
	})

	RoomDroppedFramesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rooms_dropped_frames_total",
		Help: "A counter for inbound frames dropped without a handler.",
	})

	RoomServerInFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rooms_server_in_flight_requests",
		Help: "A gauge of requests being handled by the rooms server.",
	})

	RoomServerRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rooms_server_requests_total",
		Help: "A counter for requests to the rooms server.",
	}, []string{"code", "method"})
)

func init() {
	prometheus.MustRegister(
		RoomMembersGauge,
		RoomBroadcastsCounter,
		RoomDeliveriesCounter,
		RoomSendFailuresCounter,
		RoomFramesCounter,
		RoomDroppedFramesCounter,
		RoomServerInFlightGauge,
		RoomServerRequestsCounter,
	)
}
