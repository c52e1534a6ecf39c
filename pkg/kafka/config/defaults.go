package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset    = -1 // newest
	DefaultConsumerMinBytes       = 1
	DefaultConsumerMaxBytes       = 10 * 1024 * 1024
	DefaultConsumerMaxWait        = 500 * time.Millisecond
	DefaultConsumerCommitInterval = 1 * time.Second
	DefaultConsumerSessionTimeout = 10 * time.Second
	DefaultConsumerMaxRetries     = 3

	// Journey events are keyed by booking ID so all events for a booking
	// land on the same partition in order.
	DefaultJourneyEventsTopic = "tracking.journey-events"
	DefaultJourneyEventsDLQ   = "tracking.journey-events.dlq"
)
