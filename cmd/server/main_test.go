package main

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigureLogging(t *testing.T) {
	configureLogging("debug")
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %v", logrus.GetLevel())
	}

	configureLogging("not-a-level")
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected fallback to info level, got %v", logrus.GetLevel())
	}
}
