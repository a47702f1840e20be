package app

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/lzswangjian/transition-notes/alg/transition"
	"github.com/lzswangjian/transition-notes/nlp/format/conll"
	"github.com/lzswangjian/transition-notes/nlp/lexicon"
	dep "github.com/lzswangjian/transition-notes/nlp/parser/dependency/transition"
	nlp "github.com/lzswangjian/transition-notes/nlp/types"
	"github.com/pkg/errors"
)

// OracleSequence follows the gold oracle of sys from the initial
// configuration of sent. It returns the action names taken and an error
// naming the first action the system refused.
func OracleSequence(sys transition.System, labels dep.LabelMap, sent *nlp.Sentence) ([]string, error) {
	c := dep.StateFactory(sys, labels, true)(sent)
	var actions []string
	for !sys.IsFinalState(c) {
		action := sys.NextGoldAction(c)
		name := sys.ActionAsString(action, c)
		if !sys.IsAllowedAction(action, c) {
			return actions, errors.Errorf("oracle action %s not allowed in %v", name, c)
		}
		transition.PerformAction(sys, action, c)
		actions = append(actions, name)
	}
	return actions, nil
}

func Oracle(cmd *commander.Command, args []string) error {
	VerifyFlags(cmd, []string{"tc", "lex"})
	lex, err := lexicon.LoadLexicon(lexiconDir)
	if err != nil {
		log.Fatalln(err)
	}
	sys, err := dep.NewSystem(arcSystemStr, lex.Tags)
	if err != nil {
		log.Fatalln(err)
	}
	sents, err := conll.ReadFile(tConll)
	if err != nil {
		log.Fatalln("Failed reading corpus:", err)
	}
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	var inconsistent int
	for _, sent := range sents {
		actions, err := OracleSequence(sys, lex.Labels, sent)
		if err != nil {
			inconsistent++
			log.Println(sent.DocID, err)
		}
		fmt.Fprintf(out, "%s\t%s\n", sent.DocID, strings.Join(actions, " "))
	}
	log.Printf("%d of %d sentences have an inconsistent oracle", inconsistent, len(sents))
	return nil
}

func OracleCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       Oracle,
		UsageLine: "oracle <file options>",
		Short:     "prints the gold action sequence of every sentence",
		Long: `
prints the gold action sequence of every sentence of a corpus

	$ ./parser oracle -tc <conll> -lex <dir> [-a arc-standard|tagger]

`,
		Flag: *flag.NewFlagSet("oracle", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&tConll, "tc", "", "Conll File")
	cmd.Flag.StringVar(&lexiconDir, "lex", "", "Lexicon Directory")
	cmd.Flag.StringVar(&arcSystemStr, "a", "arc-standard", "Transition System ["+strings.Join(transition.Registered(), ", ")+"]")
	return cmd
}
