package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskIngestionPoll = "ingestion.poll"

type IngestionPollPayload struct {
	RequestedAt string `json:"requestedAt"`
}

func NewIngestionPollTask(payload IngestionPollPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIngestionPoll, data), nil
}

func ParseIngestionPollPayload(task *asynq.Task) (IngestionPollPayload, error) {
	var payload IngestionPollPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return IngestionPollPayload{}, err
	}
	return payload, nil
}
