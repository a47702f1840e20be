package app

import (
	"log"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
	"github.com/lzswangjian/transition-notes/nlp/lexicon"
	"github.com/lzswangjian/transition-notes/util/conf"
)

func LexiconConfigOut() {
	log.Println("Data")
	log.Printf("Train file (conll):\t%s", tConll)
	log.Printf("Lexicon dir:\t\t%s", lexiconDir)
	if labelsFile != "" {
		log.Printf("Labels File:\t\t%s", labelsFile)
	}
	log.Println()
}

func Lexicon(cmd *commander.Command, args []string) error {
	VerifyFlags(cmd, []string{"tc", "lex"})
	LexiconConfigOut()
	if !VerifyExists(tConll) {
		os.Exit(1)
	}
	sents, err := conll.ReadFile(tConll)
	if err != nil {
		log.Fatalln("Failed reading training corpus:", err)
	}
	lex := lexicon.NewLexicon()
	for _, sent := range sents {
		lex.Add(sent)
	}
	if labelsFile != "" {
		labels, err := conf.ReadFile(labelsFile)
		if err != nil {
			log.Fatalln(err)
		}
		log.Println("Added", lex.AddLabels(labels.Values), "labels missing from the corpus")
	}
	if err := os.MkdirAll(lexiconDir, 0755); err != nil {
		log.Fatalln("Failed creating lexicon dir:", err)
	}
	if err := lex.Save(lexiconDir); err != nil {
		log.Fatalln("Failed writing lexicon:", err)
	}
	log.Printf("Words %d, tags %d, categories %d, labels %d", lex.Words.Size(), lex.Tags.Size(), lex.Categories.Size(), lex.Labels.Size())
	return nil
}

func LexiconCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Lexicon,
		UsageLine: "lexicon <file options>",
		Short:     "collects term maps from a training corpus",
		Long: `
collects word, lowercased word, tag, category and label term maps

	$ ./parser lexicon -tc <train conll> -lex <dir> [-l <labels conf>]

`,
		Flag: *flag.NewFlagSet("lexicon", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&tConll, "tc", "", "Training Conll File")
	cmd.Flag.StringVar(&lexiconDir, "lex", "", "Output Lexicon Directory")
	cmd.Flag.StringVar(&labelsFile, "l", "", "Optional - Dependency Labels Configuration File")
	return cmd
}
