package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// dialogue command flags
	dlgConversationID string
	dlgInteractive    bool
	dlgOutputJSON     bool
)

func init() {
	startCmd.Flags().StringVar(&dlgConversationID, "conversation-id", "", "Conversation ID (generated by the server when omitted)")
	startCmd.Flags().BoolVarP(&dlgInteractive, "interactive", "i", false, "Answer questions interactively until the final recommendation")
	startCmd.Flags().BoolVar(&dlgOutputJSON, "json", false, "Output turns as JSON")

	answerCmd.Flags().BoolVar(&dlgOutputJSON, "json", false, "Output turns as JSON")
}

var startCmd = &cobra.Command{
	Use:   "start <decision>",
	Short: "Start a decision dialogue",
	Long: `Start a decision dialogue. The server responds with a clarifying
question; submit answers with 'decision answer' or run interactively.

Examples:
  # Start a dialogue
  decision start "Should I take the job offer in Berlin?"

  # Run the whole dialogue interactively
  decision start -i "Should I take the job offer in Berlin?"

  # Pin a conversation id
  decision start --conversation-id my-move "Should I take the job offer in Berlin?"`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

var answerCmd = &cobra.Command{
	Use:   "answer <conversation-id> <answer>",
	Short: "Answer the pending question",
	Long: `Answer the pending question of an active dialogue. Once the question
budget is reached the server responds with the final recommendation.

Examples:
  # Answer the current question
  decision answer my-move "Mostly the career growth."

  # Output the raw turn as JSON
  decision answer my-move "Mostly the career growth." --json`,
	Args: cobra.ExactArgs(2),
	RunE: runAnswer,
}

var evictCmd = &cobra.Command{
	Use:   "evict <conversation-id>",
	Short: "Remove a conversation from the server",
	Long: `Remove a conversation and its history from the server.

Examples:
  decision evict my-move`,
	Args: cobra.ExactArgs(1),
	RunE: runEvict,
}

// runStart handles the start command
func runStart(cmd *cobra.Command, args []string) error {
	turn, err := postJSON("/api/v1/decision/start", StartRequest{
		Decision:       args[0],
		ConversationID: dlgConversationID,
	})
	if err != nil {
		return err
	}

	if !dlgInteractive {
		printTurn(turn)
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for !turn.IsFinal {
		printTurn(turn)
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			continue
		}

		turn, err = postJSON("/api/v1/decision/answer", AnswerRequest{
			ConversationID: turn.ConversationID,
			Answer:         answer,
		})
		if err != nil {
			return err
		}
	}

	printTurn(turn)
	return nil
}

// runAnswer handles the answer command
func runAnswer(cmd *cobra.Command, args []string) error {
	turn, err := postJSON("/api/v1/decision/answer", AnswerRequest{
		ConversationID: args[0],
		Answer:         args[1],
	})
	if err != nil {
		return err
	}

	printTurn(turn)
	return nil
}

// runEvict handles the evict command
func runEvict(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/api/v1/decision/%s", serverURL, args[0])
	httpReq, err := newDeleteRequest(url)
	if err != nil {
		return err
	}

	resp, err := httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 204 {
		body, _ := readBody(resp)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, body)
	}

	fmt.Fprintf(os.Stderr, "[decision] Conversation %s removed\n", args[0])
	return nil
}

// printTurn renders a turn for the terminal, or as JSON when requested.
func printTurn(turn *TurnResponse) {
	if dlgOutputJSON {
		out, err := json.MarshalIndent(turn, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "[decision] failed to render turn: %v\n", err)
			return
		}
		fmt.Println(string(out))
		return
	}

	if !turn.IsFinal {
		fmt.Printf("\n[%s]\n", turn.ConversationID)
		fmt.Printf("Q: %s\n", turn.Question)
		if turn.Hint != "" {
			fmt.Printf("   (%s)\n", turn.Hint)
		}
		return
	}

	fmt.Printf("\n[%s] Recommendation:\n%s\n", turn.ConversationID, turn.Recommendation)
	if len(turn.Analysis) > 0 {
		fmt.Println("\nAnalysis:")
		out, err := json.MarshalIndent(turn.Analysis, "", "  ")
		if err == nil {
			fmt.Println(string(out))
		}
	}
}
