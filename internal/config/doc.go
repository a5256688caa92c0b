// Package config loads and validates the engine's configuration from a
// yaml file and LEXICON_-prefixed environment variables, exposing it as
// a typed Config struct so the rest of the application never touches
// raw settings sources.
package config
