package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mindmash-ai/mindmash/internal/app"
	"github.com/mindmash-ai/mindmash/internal/config"
	"github.com/mindmash-ai/mindmash/internal/conversation"
	"github.com/mindmash-ai/mindmash/internal/markdown"
	"github.com/mindmash-ai/mindmash/internal/models"
)

var (
	debug   bool
	offline bool
	online  bool
)

var mash *app.App

var rootCmd = &cobra.Command{
	Use:   "mindmash [prompt]",
	Short: "Multi-model AI group chat",
	Long: `MindMash is a group chat where three AI models answer together and
riff on each other's replies.

Usage:
  mindmash                     # Start interactive chat
  mindmash "your question"     # Get answers and exit

Chat commands:
  /pin <fact>        pin something to the shared context
  /focus <topic>     steer the whole conversation (or /focus off)
  /thread <title>    branch into a new thread
  /compare X vs Y    ask every model for a side-by-side take
  /visualize [topic] request a concept map
  /debate            toggle debate mode
  /brainstorm        toggle brainstorm mode
  #tag and @name     annotate your message inline`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(debug)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if offline {
			cfg.Offline = true
		}
		if online {
			cfg.Offline = false
		}
		if debug {
			log.SetLevel(log.DebugLevel)
		}

		mash, err = app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			runPrompt(strings.Join(args, " "))
			return
		}
		runInteractive()
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "Force offline mode (simulated replies)")
	rootCmd.Flags().BoolVar(&online, "online", false, "Force online mode (live backend)")
}

func Execute() {
	defer func() {
		if mash != nil {
			mash.Shutdown()
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nGoodbye!")
		if mash != nil {
			mash.Shutdown()
		}
		os.Exit(0)
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// runPrompt answers a single prompt and exits.
func runPrompt(prompt string) {
	processor, err := markdown.NewProcessor()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	session := mash.CreateSession("CLI")
	printed := map[string]int{session.ActiveThreadID(): messageCount(session)}

	if err := process(session, processor, printed, prompt); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// runInteractive starts the REPL.
func runInteractive() {
	processor, err := markdown.NewProcessor()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	session := mash.CreateSession("Interactive")
	printed := map[string]int{session.ActiveThreadID(): 0}
	flushNew(session, processor, printed, true)

	fmt.Println("MindMash: grok, gemini and chatgpt are listening. Type /help or exit to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit", "/quit":
			fmt.Println("Goodbye!")
			return
		case "/help":
			fmt.Println(rootCmd.Long)
			continue
		}

		if err := process(session, processor, printed, line); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// process runs one input through the pipeline and prints everything new.
func process(session *conversation.Session, processor *markdown.Processor, printed map[string]int, input string) error {
	res, err := mash.ProcessUserMessage(context.Background(), session.ID, input)
	if err != nil {
		return err
	}

	if res.Comparison != nil {
		fmt.Println("Comparison results:")
		for _, r := range res.Comparison {
			note := ""
			if r.FellBack {
				note = " (simulated)"
			}
			fmt.Printf("\n[%s]%s\n%s\n", models.DisplayName(r.Model), note, r.Reply)
		}
		return nil
	}

	if res.Dispatch != nil {
		res.Dispatch.Wait()
	}
	flushNew(session, processor, printed, false)
	return nil
}

// flushNew prints unseen messages from the active thread. User messages are
// skipped since the user just typed them.
func flushNew(session *conversation.Session, processor *markdown.Processor, printed map[string]int, includeUser bool) {
	active := session.ActiveThreadID()
	msgs, err := session.MessagesForThread(active)
	if err != nil {
		return
	}
	for i := printed[active]; i < len(msgs); i++ {
		if !includeUser && msgs[i].Sender == conversation.SenderUser {
			continue
		}
		fmt.Println(processor.RenderTerminal(&msgs[i]))
	}
	printed[active] = len(msgs)
}

func messageCount(session *conversation.Session) int {
	msgs, err := session.MessagesForThread(session.ActiveThreadID())
	if err != nil {
		return 0
	}
	return len(msgs)
}
