package enums

// OutboxEventType enumerates the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventUserRegistered   OutboxEventType = "user.registered"
	EventCalculationSaved OutboxEventType = "calculation.saved"
)

func (e OutboxEventType) IsValid() bool {
	switch e {
	case EventUserRegistered, EventCalculationSaved:
		return true
	}
	return false
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateUser        OutboxAggregateType = "user"
	AggregateCalculation OutboxAggregateType = "calculation"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateUser, AggregateCalculation:
		return true
	}
	return false
}
