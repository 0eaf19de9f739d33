package main

import "time"

// Flag structs decouple cobra from command logic for testing.

type ServeFlags struct {
	ConfigPath string
	Listen     string
	Upstream   string
}

type StatusFlags struct {
	Service string
	// Daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type LogsFlags struct {
	Service string
	Level   string
	Limit   int
	// Daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type LifecycleFlags struct {
	Name string
	// Daemon connection
	APIUrl     string
	APITimeout time.Duration
}

type ClassifyFlags struct {
	Text  string
	Level string
	// Daemon connection
	APIUrl     string
	APITimeout time.Duration
}
