package config

type WorkerKeyStruct struct {
	PersistHistoryQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistHistoryQueue: "persist_generation_history_queue",
}
