package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SerializeMatchedEvent marshals an enriched event into its sink-topic
// form, keyed by event ID with event-type and processed-at headers.
func SerializeMatchedEvent(event StormEvent) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize matched event: %w", err)
	}

	return OutputEvent{
		Key:   []byte(event.ID),
		Value: data,
		Headers: map[string]string{
			"event_type":   event.EventType,
			"processed_at": event.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
