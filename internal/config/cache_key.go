package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CoursePoolKey returns the cache key for a course's serialized question pool
func (r *CacheKeyStruct) CoursePoolKey(courseID int) string {
	return fmt.Sprintf("course:%d:pool", courseID)
}

// RateLimitKey returns the counter key for one client in the current window
func (r *CacheKeyStruct) RateLimitKey(scope, clientIP string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, clientIP, window)
}

var CacheKey = NewCacheKeyStruct()
