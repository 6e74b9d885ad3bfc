package myevents

import (
	"encoding/json"
	"fmt"
	"io"
)

// ParseEventEnvelope decodes a pubsub push delivery into the envelope that
// was published.
func ParseEventEnvelope(reader io.Reader) (EventEnvelope, error) {
	var pushRequest PushRequest
	err := json.NewDecoder(reader).Decode(&pushRequest)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing push request: %s", err)
	}

	var envelope EventEnvelope
	err = json.Unmarshal(pushRequest.Message.Data, &envelope)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing event envelope: %s", err)
	}

	return envelope, nil
}
