package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// StudentDraftAnswersKey returns the cache key for a student's draft answers hash
func (r *CacheKeyStruct) StudentDraftAnswersKey(examID string, studentID int) string {
	return fmt.Sprintf("student:%d:exam:%s:drafts", studentID, examID)
}

// ExamPayloadKey returns the cache key for an exam's student-facing payload
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

var CacheKey = NewCacheKeyStruct()
