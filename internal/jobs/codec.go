package jobs

import (
	"encoding/json"
	"fmt"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobSendPasswordReset:
		_, ok := payload.(SendPasswordResetPayload)

		if !ok {
			_, ok2 := payload.(*SendPasswordResetPayload)

			if !ok2 {
				return nil, ErrPayloadTypeMismatch
			}
		}
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals job.Payload into the correct typed payload struct.
func DecodePayload(j Job) (any, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch j.Type {
	case JobSendPasswordReset:
		var p SendPasswordResetPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// EncodeJob/DecodeJob frame the whole envelope for the wire.

func EncodeJob(j Job) ([]byte, error) {
	if !j.Type.IsValid() {
		return nil, ErrInvalidJobType
	}

	return json.Marshal(j)
}

func DecodeJob(b []byte) (Job, error) {
	var j Job

	if err := json.Unmarshal(b, &j); err != nil {
		return Job{}, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	if !j.Type.IsValid() {
		return Job{}, ErrInvalidJobType
	}

	return j, nil
}
