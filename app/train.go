package app

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/google/uuid"
	"github.com/lzswangjian/transition-notes/alg/search"
	"github.com/lzswangjian/transition-notes/alg/transition/model"
	"github.com/lzswangjian/transition-notes/eval"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/lzswangjian/transition-notes/util"
)

// Decode parses every sentence of corpus with m and returns the annotated
// copies in corpus order.
func Decode(p *Pipeline, m *model.MatrixSparse, corpus conll.Corpus) ([]*nlp.Sentence, error) {
	batch, sentences, err := p.Batch(corpus, false)
	if err != nil {
		return nil, err
	}
	defer batch.Release()
	defer sentences.Close()

	decoder := &search.Decoder{Batch: batch, Scorer: m, MaxSteps: p.Config.MaxSteps}
	var parsed []*nlp.Sentence
	decoder.DecodeAll(func(out *search.BeamEvalOutput) {
		parsed = append(parsed, out.Sentence)
	})
	return parsed, sentences.Err()
}

// TrainModel runs epochs over corpus, logging attachment scores on dev
// after every epoch when dev is set.
func TrainModel(p *Pipeline, corpus, dev conll.Corpus, epochs int, after func(epoch int, m *model.MatrixSparse)) (*model.MatrixSparse, error) {
	batch, sentences, err := p.Batch(corpus, true)
	if err != nil {
		return nil, err
	}
	defer batch.Release()
	defer sentences.Close()

	m := p.NewModel(batch)
	trainer := &search.Trainer{Batch: batch, Scorer: m, MaxSteps: p.Config.MaxSteps}
	var gold []*nlp.Sentence
	if dev != nil {
		if gold, err = readCorpus(dev); err != nil {
			return nil, err
		}
	}
	for i := 0; i < epochs; i++ {
		start := time.Now()
		loss := trainer.TrainEpoch()
		if err := sentences.Err(); err != nil {
			return nil, err
		}
		log.Printf("Epoch %d: mean loss %.4f, %v, %v", batch.Epoch(), loss, m, time.Since(start))
		if dev != nil {
			parsed, err := Decode(p, m, dev)
			if err != nil {
				return nil, err
			}
			scores := eval.NewParse(false)
			if err := scores.AddCorpus(parsed, gold); err != nil {
				return nil, err
			}
			log.Printf("Epoch %d dev:\n%v", batch.Epoch(), scores)
		}
		if after != nil {
			after(i+1, m)
		}
	}
	return m, nil
}

func readCorpus(corpus conll.Corpus) ([]*nlp.Sentence, error) {
	reader, err := corpus.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	var sents []*nlp.Sentence
	for {
		sent, err := reader.Read()
		if err == io.EOF {
			return sents, nil
		}
		if err != nil {
			return nil, err
		}
		sents = append(sents, sent)
	}
}

func Train(cmd *commander.Command, args []string) error {
	VerifyFlags(cmd, []string{"c", "tc", "lex", "m"})
	log.SetPrefix(fmt.Sprintf("[%s] ", uuid.New().String()[:8]))

	configFile = Locate(configFile, DEFAULT_CONF_DIRS)
	conf, err := ReadConfigFile(configFile)
	if err != nil {
		log.Fatalln(err)
	}
	if BeamSize > 0 {
		conf.Batch.MaxBeamSize = BeamSize
	}
	if Iterations > 0 {
		conf.Epochs = Iterations
	}
	conf.Out()
	log.Println("Data")
	log.Printf("Train file (conll):\t%s", tConll)
	if !VerifyExists(tConll) {
		os.Exit(1)
	}
	if inputGold != "" {
		log.Printf("Dev file (conll):\t%s", inputGold)
	}
	log.Printf("Model file:\t\t%s", modelFile)
	log.Println()

	p, err := NewPipeline(conf, lexiconDir)
	if err != nil {
		log.Fatalln(err)
	}
	ServeMetrics(metricsAddr)

	var dev conll.Corpus
	if inputGold != "" {
		dev = &conll.FileCorpus{Filename: inputGold}
	}
	save := func(epoch int, m *model.MatrixSparse) {
		if err := SavePipeline(modelFile, p, m); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote model after epoch", epoch)
		if showMemory {
			util.LogMemory()
		}
	}
	if _, err := TrainModel(p, &conll.FileCorpus{Filename: tConll}, dev, conf.Epochs, save); err != nil {
		log.Fatalln(err)
	}
	return nil
}

func TrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Train,
		UsageLine: "train <file options> [arguments]",
		Short:     "trains a beam search parser",
		Long: `
trains a beam search transition parser with the path level softmax loss

	$ ./parser train -c <config yaml> -tc <train conll> -lex <dir> -m <model> [-dev <conll>] [options]

`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&configFile, "c", "", "Training Configuration File (yaml)")
	cmd.Flag.StringVar(&tConll, "tc", "", "Training Conll File")
	cmd.Flag.StringVar(&inputGold, "dev", "", "Optional - Dev Gold Conll File (for convergence)")
	cmd.Flag.StringVar(&lexiconDir, "lex", "", "Lexicon Directory")
	cmd.Flag.StringVar(&modelFile, "m", "", "Output Model File")
	cmd.Flag.IntVar(&Iterations, "it", 0, "Optional - Number of Epochs (overrides configuration)")
	cmd.Flag.IntVar(&BeamSize, "b", 0, "Optional - Beam Size (overrides configuration)")
	cmd.Flag.StringVar(&metricsAddr, "metrics", "", "Optional - Serve Prometheus metrics on this address")
	cmd.Flag.BoolVar(&showMemory, "showmem", false, "Log memory usage after every epoch")
	cmd.Flag.BoolVar(&search.ShowOracle, "showoracle", false, "Show oracle transitions")
	cmd.Flag.BoolVar(&search.AllOut, "showbeam", false, "Show candidates in beam")
	return cmd
}
