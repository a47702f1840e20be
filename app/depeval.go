package app

import (
	"fmt"
	"log"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/lzswangjian/transition-notes/eval"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
)

var showErrors bool

func DepEvalConfigOut() {
	log.Println("Data")
	log.Printf("Parsed result file:\t%s", input)
	if !VerifyExists(input) {
		os.Exit(1)
	}
	log.Printf("Gold file:\t\t%s", inputGold)
	if !VerifyExists(inputGold) {
		os.Exit(1)
	}
	log.Println()
}

// EvalFiles scores a parsed conll file against a gold one.
func EvalFiles(parsedFile, goldFile string, keep bool) (*eval.Parse, error) {
	parsed, err := conll.ReadFile(parsedFile)
	if err != nil {
		return nil, err
	}
	gold, err := conll.ReadFile(goldFile)
	if err != nil {
		return nil, err
	}
	scores := eval.NewParse(keep)
	if err := scores.AddCorpus(parsed, gold); err != nil {
		return nil, err
	}
	return scores, nil
}

func DepEval(cmd *commander.Command, args []string) error {
	VerifyFlags(cmd, []string{"p", "g"})
	DepEvalConfigOut()
	scores, err := EvalFiles(input, inputGold, showErrors)
	if err != nil {
		log.Fatalln(err)
	}
	if showErrors {
		for _, e := range scores.LAS.Errors() {
			log.Println(e)
		}
		log.Println("Errors by type:", scores.LAS.Errors().ByType())
	}
	fmt.Println(scores)
	return nil
}

func DepEvalCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       DepEval,
		UsageLine: "eval <file options>",
		Short:     "computes attachment scores",
		Long: `
computes unlabeled and labeled attachment scores of a parsed file

	$ ./parser eval -p <parsed conll> -g <gold conll>

`,
		Flag: *flag.NewFlagSet("eval", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&input, "p", "", "Parse Result Conll File")
	cmd.Flag.StringVar(&inputGold, "g", "", "Gold Conll File")
	cmd.Flag.BoolVar(&showErrors, "errors", false, "Log every attachment error")
	return cmd
}
