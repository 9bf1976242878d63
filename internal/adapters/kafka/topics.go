package kafka

// Topic names for tripcast events
const (
	// TopicPredictionEvents carries prediction-made events
	TopicPredictionEvents = "tripcast.predictions"

	// TopicModelEvents carries model lifecycle events (reloads, load failures)
	TopicModelEvents = "tripcast.model"
)
