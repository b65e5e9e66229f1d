package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_BasicTopic(t *testing.T) {
	n := New()
	res := n.Run("Digital Pathology")
	assert.Equal(t, "Digital Pathology", res.Topic)
	assert.Equal(t, "digital-pathology", res.TopicName)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestNormalizer_AmpersandBecomesAnd(t *testing.T) {
	n := New()
	res := n.Run("Oil & Gas")
	assert.Equal(t, "Oil & Gas", res.Topic)
	assert.Equal(t, "oil-and-gas", res.TopicName)
}

func TestNormalizer_PlusBecomesPlus(t *testing.T) {
	n := New()
	res := n.Run("5G + IoT Devices")
	assert.Equal(t, "5g-plus-iot-devices", res.TopicName)
}

func TestNormalizer_OrphanPrepositionStripped(t *testing.T) {
	n := New()
	res := n.Run("Retail in")
	assert.Equal(t, "Retail", res.Topic)
	assert.Equal(t, "retail", res.TopicName)
}

func TestNormalizer_EmptyTopicLowersConfidence(t *testing.T) {
	n := New()
	res := n.Run("in")
	assert.Equal(t, "", res.Topic)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := New()
	first := n.Run("Real-Time Locating Systems RTLS")
	second := n.Run(first.Topic)
	assert.Equal(t, first.Topic, second.Topic)
	assert.Equal(t, first.TopicName, second.TopicName)
}
