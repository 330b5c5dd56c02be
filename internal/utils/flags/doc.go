// Package flags provides pflag values for choice and yes/no toggle flags.
package flags
