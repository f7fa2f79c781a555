package tui

import (
	"time"

	"github.com/Tomjg14/research-newsfeed/internal/aggregate"
)

type bucketsLoadedMsg struct {
	buckets aggregate.BucketMap
	took    time.Duration
}

type openErrMsg struct {
	err error
}
