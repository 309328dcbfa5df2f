// Package shared holds code used across sspyviz packages that belongs to no
// single layer.
//
// The testutil subpackage provides the fixtures the package tests share: a
// buffered slog handler for asserting on log output, and a small soundscape
// survey (CSV bytes, reader and parsed table) with known exclusions and
// location counts.
package shared
