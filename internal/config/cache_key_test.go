package config

import "testing"

// The workers and services build these keys independently of each other, so
// a drifting format or argument order silently splits readers from writers.
func TestCacheKeyFormats(t *testing.T) {
	examID := "5f9f1f6e-0b2a-4d58-9c41-1df5a4b7a001"

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"student session", CacheKey.StudentSessionKey(42), "login:42"},
		{"draft answers", CacheKey.StudentDraftAnswersKey(examID, 42), "student:42:exam:" + examID + ":drafts"},
		{"exam payload", CacheKey.ExamPayloadKey(examID), "exam:" + examID + ":payload"},
		{"monitor channel", CacheKey.ExamMonitorChannel(examID), "exam:" + examID + ":monitor"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("%s key = %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}

func TestWorkerQueueNames(t *testing.T) {
	if WorkerKey.PersistActivityQueue == WorkerKey.PersistDraftsQueue {
		t.Fatal("activity and draft queues must not share a name")
	}
	if WorkerKey.PersistActivityQueue == "" || WorkerKey.PersistDraftsQueue == "" {
		t.Fatal("queue names must not be empty")
	}
}
