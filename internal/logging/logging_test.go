package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf)
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())

	Component(log, "ranker").Debug("hello")
	assert.Contains(t, buf.String(), "component=ranker")
	assert.Contains(t, buf.String(), "service=reportgen")
}

func TestNew_UnknownLevel(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New("loud").Logger.GetLevel())
}

func TestComponent_NilParent(t *testing.T) {
	assert.Equal(t, "x", Component(nil, "x").Data["component"])
}
