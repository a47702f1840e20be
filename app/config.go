package app

import (
	"log"
	"os"

	"github.com/lzswangjian/transition-notes/alg/search"
	dep "github.com/lzswangjian/transition-notes/nlp/parser/dependency/transition"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML training configuration.
type Config struct {
	System       string                   `yaml:"transition_system"`
	Batch        search.BatchStateOptions `yaml:"batch"`
	MaxSteps     int                      `yaml:"max_steps"`
	LearningRate float64                  `yaml:"learning_rate"`
	Epochs       int                      `yaml:"epochs"`
	// Features holds the channels in "name=feat feat:dim;..." form; it is
	// appended to Channels.
	Features string             `yaml:"features"`
	Channels []dep.ChannelSpec `yaml:"channels"`
}

func DefaultConfig() *Config {
	return &Config{
		System: "arc-standard",
		Batch: search.BatchStateOptions{
			MaxBeamSize: 8,
			BatchSize:   32,
			CorpusName:  "training-corpus",
		},
		LearningRate: 0.1,
		Epochs:       10,
	}
}

// ReadConfig reads a YAML configuration over DefaultConfig.
func ReadConfig(data []byte) (*Config, error) {
	conf := DefaultConfig()
	if err := yaml.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrap(err, "parsing configuration")
	}
	if conf.Features != "" {
		specs, err := dep.ParseChannelSpecs(conf.Features)
		if err != nil {
			return nil, errors.Wrap(err, "parsing features")
		}
		conf.Channels = append(conf.Channels, specs...)
		conf.Features = ""
	}
	if len(conf.Channels) == 0 {
		return nil, errors.New("configuration has no feature channels")
	}
	if err := conf.Batch.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func ReadConfigFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "reading configuration")
	}
	return ReadConfig(data)
}

func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	return data, errors.Wrap(err, "marshalling configuration")
}

func (c *Config) Out() {
	log.Println("Configuration")
	log.Printf("Transition System:\t%s", c.System)
	log.Printf("Beam Size:\t\t%d", c.Batch.MaxBeamSize)
	log.Printf("Batch Size:\t\t%d", c.Batch.BatchSize)
	log.Printf("Max Steps:\t\t%d", c.MaxSteps)
	log.Printf("Learning Rate:\t\t%g", c.LearningRate)
	log.Printf("Epochs:\t\t%d", c.Epochs)
	for _, ch := range c.Channels {
		log.Printf("Channel %s (dim %d):\t%s", ch.Name, ch.Dim, ch.Features)
	}
	log.Println()
}
