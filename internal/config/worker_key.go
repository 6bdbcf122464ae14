package config

type WorkerKeyStruct struct {
	PersistActivityQueue string
	PersistDraftsQueue   string
}

var WorkerKey = &WorkerKeyStruct{
	PersistActivityQueue: "persist_activity_queue",
	PersistDraftsQueue:   "persist_drafts_queue",
}
