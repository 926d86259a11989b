package kbinxml

import (
	"os"
	"strconv"
	"strings"
)

/*
===============================================================================
    Configuration
===============================================================================
*/

// Config represents the module-wide configuration, env-driven like the
// rest of the ambient stack.
type Config struct {
	// StrictMode is read from KBINXML_STRICTMODE but no part of the codec
	// consults it: declared array/string lengths that exceed the remaining
	// data buffer are always rejected, never truncated.
	StrictMode bool

	LogLevel string

	// ReadBufferSize is read from KBINXML_READBUFFERSIZE but no part of
	// the codec consults it; Encode sizes its buffers from the data it
	// writes.
	ReadBufferSize int

	// do not access / write `_set`. It is used internally.
	_set bool
}

func intFromEnv(key string) (val int, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		found = false
	}
	return
}

func intFromEnvDefault(key string, def int) (val int) {
	val, found := intFromEnv(key)
	if !found {
		val = def
	}
	return
}

func strFromEnvDefault(key string, def string) (val string) {
	val, found := os.LookupEnv(key)
	if !found {
		val = def
	}
	return
}

func boolFromEnv(key string) (val bool, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		found = false
	}
	return
}

func boolFromEnvDefault(key string, def bool) (val bool) {
	val, found := boolFromEnv(key)
	if !found {
		val = def
	}
	return
}

var config Config

// GetConfig returns the module configuration, populating it from the
// environment on first use.
func GetConfig() Config {
	if !config._set {
		config.StrictMode = boolFromEnvDefault("KBINXML_STRICTMODE", false)
		config.ReadBufferSize = intFromEnvDefault("KBINXML_READBUFFERSIZE", 2*1024*1024)
		config.LogLevel = strings.ToLower(strFromEnvDefault("KBINXML_LOGLEVEL", "info"))
		config._set = true
	}
	return config
}

// OverrideConfig overrides the configuration parsed from the environment
// with the one provided.
func OverrideConfig(newconfig Config) {
	newconfig._set = true
	config = newconfig
}
