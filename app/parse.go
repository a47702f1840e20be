package app

import (
	"log"
	"os"
	"time"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/lzswangjian/transition-notes/alg/search"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
)

func Parse(cmd *commander.Command, args []string) error {
	VerifyFlags(cmd, []string{"m", "in", "oc"})
	modelFile = Locate(modelFile, DEFAULT_MODEL_DIRS)
	if !VerifyExists(modelFile) || !VerifyExists(input) {
		os.Exit(1)
	}
	p, m, err := LoadPipeline(modelFile, lexiconDir)
	if err != nil {
		log.Fatalln(err)
	}
	if BeamSize > 0 {
		p.Config.Batch.MaxBeamSize = BeamSize
	}
	if BatchSize > 0 {
		p.Config.Batch.BatchSize = BatchSize
	}
	p.Config.Out()
	log.Printf("Input file (conll):\t%s", input)
	log.Printf("Out (conll) file:\t%s", outConll)
	log.Println()
	ServeMetrics(metricsAddr)

	start := time.Now()
	parsed, err := Decode(p, m, &conll.FileCorpus{Filename: input})
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Parsed", len(parsed), "sentences in", time.Since(start))
	if err := conll.WriteFile(outConll, parsed); err != nil {
		log.Fatalln(err)
	}
	return nil
}

func ParseCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Parse,
		UsageLine: "parse <file options> [arguments]",
		Short:     "parses a conll file with a trained model",
		Long: `
parses a conll file with a trained model, keeping every beam alive until
all of its hypotheses are final

	$ ./parser parse -m <model> -in <conll> -oc <out conll> [options]

`,
		Flag: *flag.NewFlagSet("parse", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&modelFile, "m", "", "Model File")
	cmd.Flag.StringVar(&input, "in", "", "Input Conll File")
	cmd.Flag.StringVar(&outConll, "oc", "", "Output Conll File")
	cmd.Flag.StringVar(&lexiconDir, "lex", "", "Optional - Lexicon Directory (overrides the model's)")
	cmd.Flag.IntVar(&BeamSize, "b", 0, "Optional - Beam Size (overrides the model's)")
	cmd.Flag.IntVar(&BatchSize, "bs", 0, "Optional - Batch Size (overrides the model's)")
	cmd.Flag.StringVar(&metricsAddr, "metrics", "", "Optional - Serve Prometheus metrics on this address")
	cmd.Flag.BoolVar(&search.AllOut, "showbeam", false, "Show candidates in beam")
	return cmd
}
