package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// LoginAttemptsKey counts login attempts from one client IP in the current window.
func (r *CacheKeyStruct) LoginAttemptsKey(ip string) string {
	return fmt.Sprintf("login_attempts:%s", ip)
}

// ExamMonitorChannel is the Redis PubSub channel that receives session events.
func (r *CacheKeyStruct) ExamMonitorChannel() string {
	return "exam:monitor"
}

var CacheKey = NewCacheKeyStruct()
