// Package domain defines the core entities of the spaced-repetition
// engine: cards, daily plans, session state, and the learner's review
// choices. Types here carry no I/O; scheduling math lives in the srs
// subpackage and persistence behind the store interfaces.
package domain
