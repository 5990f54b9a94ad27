package main

import (
	"slices"
	"testing"

	"github.com/etnz/payments/docs"
)

func TestCompletionTopics(t *testing.T) {
	got := completion().Sub["topic"].Args.Predict("")

	want, err := docs.GetAllTopics()
	if err != nil {
		t.Fatalf("GetAllTopics() failed: %v", err)
	}
	want = append(want, "readme", "services", "*")
	for _, topic := range want {
		if !slices.Contains(got, topic) {
			t.Errorf("topic completion %v is missing %q", got, topic)
		}
	}
}

func TestCompletionCommands(t *testing.T) {
	c := completion()
	for _, name := range []string{"process", "report", "convert", "consume", "export", "topic"} {
		if _, ok := c.Sub[name]; !ok {
			t.Errorf("command %q has no completion", name)
		}
	}
}
