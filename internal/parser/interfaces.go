package parser

import "io"

// Parser turns a subtitle payload into a list of items.
type Parser[T any] interface {
	Parse(body io.Reader) ([]T, error)
}
