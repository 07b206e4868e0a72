package model

import (
	"fmt"
	"strings"
)

// CrawlingInput is a value entering the frontier: where it came from
// (Source) and the raw string to feed back through the processor bank.
type CrawlingInput struct {
	Source   Source
	RawInput string
}

// NewCrawlingInput trims RawInput and rejects blank values, per the
// invariant that every CrawlingInput carries a non-blank raw input.
func NewCrawlingInput(source Source, rawInput string) (CrawlingInput, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return CrawlingInput{}, fmt.Errorf("crawling input: raw input is blank")
	}
	return CrawlingInput{Source: source, RawInput: trimmed}, nil
}

// ValueHolder carries an output value plus whether the engine may re-feed
// it into the frontier as a new CrawlingInput.
type ValueHolder struct {
	Value     string
	Crawlable bool
}

// Crawlable builds a ValueHolder that will be re-fed into the frontier.
func Crawlable(value string) ValueHolder {
	return ValueHolder{Value: value, Crawlable: true}
}

// Uncrawlable builds a ValueHolder that is stored but never re-fed.
func Uncrawlable(value string) ValueHolder {
	return ValueHolder{Value: value, Crawlable: false}
}
