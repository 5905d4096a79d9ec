package registry

import (
	"encoding/json"

	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/outbox/payloads"
)

// payloadEnvelopeVersion is the only payload shape shipped so far; bumping a
// payload means registering the new version here alongside the old one.
const payloadEnvelopeVersion = 1

func decodeJSON[T any](raw json.RawMessage) (interface{}, error) {
	var decoded T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return &decoded, nil
}

// NewDomainDecoderRegistry returns a registry covering every event type the
// platform emits, so consumers get typed payloads instead of raw JSON.
func NewDomainDecoderRegistry() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventMovementRecorded, payloadEnvelopeVersion, decodeJSON[payloads.MovementRecordedEvent])
	reg.Register(enums.EventTransferRequestCreated, payloadEnvelopeVersion, decodeJSON[payloads.TransferRequestCreatedEvent])
	reg.Register(enums.EventTransferRequestApproved, payloadEnvelopeVersion, decodeJSON[payloads.TransferRequestDecidedEvent])
	reg.Register(enums.EventTransferRequestRejected, payloadEnvelopeVersion, decodeJSON[payloads.TransferRequestDecidedEvent])
	reg.Register(enums.EventTransferRequestCanceled, payloadEnvelopeVersion, decodeJSON[payloads.TransferRequestDecidedEvent])
	reg.Register(enums.EventAlertRaised, payloadEnvelopeVersion, decodeJSON[payloads.AlertRaisedEvent])
	reg.Register(enums.EventAlertResolved, payloadEnvelopeVersion, decodeJSON[payloads.AlertResolvedEvent])
	return reg
}
