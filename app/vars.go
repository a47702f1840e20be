package app

import (
	"encoding/gob"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gonuts/commander"
	"github.com/lzswangjian/transition-notes/alg/search"
	"github.com/lzswangjian/transition-notes/alg/transition"
	"github.com/lzswangjian/transition-notes/alg/transition/model"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
	"github.com/lzswangjian/transition-notes/nlp/lexicon"
	dep "github.com/lzswangjian/transition-notes/nlp/parser/dependency/transition"
	"github.com/lzswangjian/transition-notes/util"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	gob.Register(&Serialization{})
}

var (
	// file names
	tConll       string
	input        string
	inputGold    string
	outConll     string
	modelFile    string
	configFile   string
	labelsFile   string
	lexiconDir   string
	metricsAddr  string
	arcSystemStr string

	// processing options
	Iterations, BeamSize, BatchSize int
	showMemory                      bool

	DEFAULT_CONF_DIRS  = []string{"conf", "data"}
	DEFAULT_MODEL_DIRS = []string{"data"}
)

// Serialization is the content of a model file.
type Serialization struct {
	Config      []byte
	LexiconDir  string
	WeightModel *model.MatrixSparseSerialized
}

func WriteModel(file string, data *Serialization) error {
	fObj, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "creating model file %s", file)
	}
	defer fObj.Close()
	return errors.Wrap(gob.NewEncoder(fObj).Encode(data), "writing model")
}

func ReadModel(file string) (*Serialization, error) {
	data := &Serialization{}
	fObj, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model from %s", file)
	}
	defer fObj.Close()
	if err := gob.NewDecoder(fObj).Decode(data); err != nil {
		return nil, errors.Wrapf(err, "decoding model %s", file)
	}
	return data, nil
}

func VerifyExists(filename string) bool {
	_, err := os.Stat(filename)
	if err != nil {
		log.Println("Error accessing file", filename)
		log.Println(err)
		return false
	}
	return true
}

func VerifyFlags(cmd *commander.Command, required []string) {
	for _, flag := range required {
		f := cmd.Flag.Lookup(flag)
		if f.Value.String() == "" {
			log.Printf("Required flag %s not set", f.Name)
			cmd.Usage()
			os.Exit(1)
		}
	}
}

// ServeMetrics exposes the Prometheus registry on addr, if set.
func ServeMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Println("Serving metrics on", addr)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Println("Metrics server stopped:", err)
		}
	}()
}

// Pipeline binds a configuration to its lexicon, transition system and
// feature extractor.
type Pipeline struct {
	Config     *Config
	LexiconDir string
	Lexicon    *lexicon.Lexicon
	System     transition.System
	Extractor  *dep.EmbeddingFeatureExtractor
}

func NewPipeline(conf *Config, lexDir string) (*Pipeline, error) {
	lex, err := lexicon.LoadLexicon(lexDir)
	if err != nil {
		return nil, errors.Wrapf(err, "loading lexicon from %s", lexDir)
	}
	sys, err := dep.NewSystem(conf.System, lex.Tags)
	if err != nil {
		return nil, err
	}
	extractor, err := dep.NewEmbeddingFeatureExtractor(conf.Channels, lex)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Config:     conf,
		LexiconDir: lexDir,
		Lexicon:    lex,
		System:     sys,
		Extractor:  extractor,
	}, nil
}

// LabelMapFile is the label term map shared by every batch of the pipeline.
func (p *Pipeline) LabelMapFile() string {
	return filepath.Join(p.LexiconDir, lexicon.LABEL_MAP)
}

// Batch builds a batch controller over corpus. The caller releases it.
func (p *Pipeline) Batch(corpus conll.Corpus, training bool) (*search.BatchState, *conll.SentenceBatch, error) {
	options := p.Config.Batch
	if !training {
		options.CorpusName = corpus.Name()
	}
	sentences := conll.NewSentenceBatch(corpus, options.BatchSize)
	if err := sentences.Init(); err != nil {
		return nil, nil, err
	}
	batch := search.NewBatchState(options)
	err := batch.Init(&search.Environment{
		Sentences:    sentences,
		System:       p.System,
		Features:     p.Extractor,
		LabelMapName: p.LabelMapFile(),
		LoadLabels: func() (search.LabelMap, error) {
			labels, err := lexicon.Load(p.LabelMapFile(), 0, 0)
			if err != nil {
				return nil, err
			}
			labels.Freeze()
			return labels, nil
		},
		NewState: func(labels search.LabelMap) search.StateFactory {
			return dep.StateFactory(p.System, labels, training)
		},
	})
	if err != nil {
		sentences.Close()
		return nil, nil, err
	}
	return batch, sentences, nil
}

// NewModel builds an empty scorer sized for batch.
func (p *Pipeline) NewModel(batch *search.BatchState) *model.MatrixSparse {
	m := model.NewMatrixSparse(p.Extractor, batch.NumActions(), p.Config.LearningRate)
	for i := range m.Channels {
		m.Channels[i].Name = p.Extractor.ChannelName(i)
	}
	return m
}

// LoadPipeline restores the pipeline and scorer stored in a model file.
// A non-empty lexDir overrides the stored lexicon location.
func LoadPipeline(file, lexDir string) (*Pipeline, *model.MatrixSparse, error) {
	data, err := ReadModel(file)
	if err != nil {
		return nil, nil, err
	}
	conf, err := ReadConfig(data.Config)
	if err != nil {
		return nil, nil, err
	}
	if lexDir == "" {
		lexDir = data.LexiconDir
	}
	p, err := NewPipeline(conf, lexDir)
	if err != nil {
		return nil, nil, err
	}
	m := &model.MatrixSparse{}
	m.Deserialize(data.WeightModel)
	return p, m, nil
}

// SavePipeline writes the configuration, lexicon location and weights.
func SavePipeline(file string, p *Pipeline, m *model.MatrixSparse) error {
	conf, err := p.Config.Marshal()
	if err != nil {
		return err
	}
	err = WriteModel(file, &Serialization{
		Config:      conf,
		LexiconDir:  p.LexiconDir,
		WeightModel: m.Serialize(),
	})
	if err != nil {
		return err
	}
	if sum, err := util.MD5File(file); err == nil {
		log.Printf("Model %s md5 %s", file, sum)
	}
	return nil
}

// Locate returns name, or its first match under dirs.
func Locate(name string, dirs []string) string {
	if location, found := util.LocateFile(name, dirs); found {
		return location
	}
	return name
}
