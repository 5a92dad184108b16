package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/apiclient"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/board"
	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const (
	commandUseName          = "board"
	commandShortDescription = "Feedback board client"
	commandLongDescription  = "Browse, submit, upvote, and comment on feedback items from the terminal"

	flagNameAPIBaseURL    = "api-url"
	flagNameViewerName    = "viewer-name"
	flagNameViewerEmail   = "viewer-email"
	flagUsageAPIBaseURL   = "base URL of the feedback board API"
	flagUsageViewerName   = "display name attached to comments and submissions"
	flagUsageViewerEmail  = "contact email attached to submissions"
	environmentKeyAPIURL  = "BOARD_API_URL"
	defaultAPIBaseURL     = "http://localhost:8080"
	loggerCreationMessage = "logger"

	listFlagType     = "type"
	listFlagStatus   = "status"
	listFlagPriority = "priority"
	listFlagSort     = "sort"
	listFlagSearch   = "search"
	listFlagPage     = "page"

	submitFlagType          = "type"
	submitFlagTitle         = "title"
	submitFlagDescription   = "description"
	submitFlagModelName     = "model-name"
	submitFlagModelProvider = "model-provider"
	submitFlagMetadata      = "meta"
	submitFlagReferenceURL  = "reference-url"
	submitFlagEnvironment   = "environment"

	commentFlagText = "text"

	validationFailedMessage = "submission does not pass validation: title needs 3+ characters, description 10+, and model requests need a model name or provider"
)

type boardApplication struct {
	configurationLoader *viper.Viper
	logger              *zap.Logger
	apiBaseURL          string
	viewerName          string
	viewerEmail         string
}

func newBoardApplication() *boardApplication {
	return &boardApplication{configurationLoader: viper.New()}
}

func (application *boardApplication) rootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:               commandUseName,
		Short:             commandShortDescription,
		Long:              commandLongDescription,
		PersistentPreRunE: application.initialize,
	}

	persistentFlags := rootCommand.PersistentFlags()
	persistentFlags.String(flagNameAPIBaseURL, defaultAPIBaseURL, flagUsageAPIBaseURL)
	persistentFlags.String(flagNameViewerName, "", flagUsageViewerName)
	persistentFlags.String(flagNameViewerEmail, "", flagUsageViewerEmail)

	application.configurationLoader.SetDefault(environmentKeyAPIURL, defaultAPIBaseURL)
	application.configurationLoader.AutomaticEnv()
	_ = application.configurationLoader.BindPFlag(environmentKeyAPIURL, persistentFlags.Lookup(flagNameAPIBaseURL))

	rootCommand.AddCommand(application.listCommand())
	rootCommand.AddCommand(application.submitCommand())
	rootCommand.AddCommand(application.voteCommand())
	rootCommand.AddCommand(application.commentCommand())

	return rootCommand
}

func (application *boardApplication) initialize(command *cobra.Command, _ []string) error {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationMessage, loggerErr)
	}
	application.logger = logger
	application.apiBaseURL = strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAPIURL))
	application.viewerName, _ = command.Flags().GetString(flagNameViewerName)
	application.viewerEmail, _ = command.Flags().GetString(flagNameViewerEmail)
	return nil
}

func (application *boardApplication) client() (*apiclient.HTTPClient, error) {
	return apiclient.NewHTTPClient(application.apiBaseURL, application.logger)
}

func (application *boardApplication) listCommand() *cobra.Command {
	listCommand := &cobra.Command{
		Use:   "list",
		Short: "List feedback items",
		RunE:  application.runList,
	}
	listFlags := listCommand.Flags()
	listFlags.String(listFlagType, board.FilterAll, "filter by feedback type")
	listFlags.String(listFlagStatus, board.FilterAll, "filter by status")
	listFlags.String(listFlagPriority, board.FilterAll, "filter by priority")
	listFlags.String(listFlagSort, string(model.SortModeRecent), "sort mode: recent, popular, or oldest")
	listFlags.String(listFlagSearch, "", "free-text search")
	listFlags.Int(listFlagPage, 0, "zero-based page index")
	return listCommand
}

// runList derives the query through the filter controller so the CLI and the
// page agree on parameter semantics.
func (application *boardApplication) runList(command *cobra.Command, _ []string) error {
	client, clientErr := application.client()
	if clientErr != nil {
		return clientErr
	}

	filters := board.NewFilterController(board.DefaultConfig())
	typeValue, _ := command.Flags().GetString(listFlagType)
	statusValue, _ := command.Flags().GetString(listFlagStatus)
	priorityValue, _ := command.Flags().GetString(listFlagPriority)
	sortValue, _ := command.Flags().GetString(listFlagSort)
	searchValue, _ := command.Flags().GetString(listFlagSearch)
	pageValue, _ := command.Flags().GetInt(listFlagPage)

	filters.SetTypeFilter(typeValue)
	filters.SetStatusFilter(statusValue)
	filters.SetPriorityFilter(priorityValue)
	filters.SetSortMode(sortValue)
	filters.SetPage(pageValue)

	query := filters.Query()
	query.Search = strings.TrimSpace(searchValue)

	result, listErr := client.ListFeedback(command.Context(), query)
	if listErr != nil {
		return listErr
	}

	command.Printf("%d items (page %d)\n", result.Total, pageValue)
	for _, item := range result.Items {
		command.Printf("%s  [%s/%s]  %s  (%d upvotes, %d comments)\n",
			item.ID, item.Type, item.Status, item.Title, item.Upvotes, item.CommentCount)
	}
	return nil
}

func (application *boardApplication) submitCommand() *cobra.Command {
	submitCommand := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new feedback item",
		RunE:  application.runSubmit,
	}
	submitFlags := submitCommand.Flags()
	submitFlags.String(submitFlagType, string(model.FeedbackTypeFeatureRequest), "feedback type")
	submitFlags.String(submitFlagTitle, "", "item title")
	submitFlags.String(submitFlagDescription, "", "item description")
	submitFlags.String(submitFlagModelName, "", "requested model name")
	submitFlags.String(submitFlagModelProvider, "", "requested model provider")
	submitFlags.StringSlice(submitFlagMetadata, nil, "type-specific field as name=value")
	submitFlags.String(submitFlagReferenceURL, "", "external reference link")
	submitFlags.String(submitFlagEnvironment, "", "environment indicator override")
	return submitCommand
}

// runSubmit drives the submission form controller so the CLI applies the same
// validation gate and payload merge as the page.
func (application *boardApplication) runSubmit(command *cobra.Command, _ []string) error {
	client, clientErr := application.client()
	if clientErr != nil {
		return clientErr
	}

	typeValue, _ := command.Flags().GetString(submitFlagType)
	feedbackType, typeKnown := model.ParseFeedbackType(strings.TrimSpace(typeValue))
	if !typeKnown {
		return fmt.Errorf("unknown feedback type: %s", typeValue)
	}

	form := board.NewSubmissionFormController(client, nil, nil, nil, application.logger,
		board.DetectEnvironment(application.apiBaseURL, false))
	form.SetType(feedbackType)

	titleValue, _ := command.Flags().GetString(submitFlagTitle)
	descriptionValue, _ := command.Flags().GetString(submitFlagDescription)
	modelNameValue, _ := command.Flags().GetString(submitFlagModelName)
	modelProviderValue, _ := command.Flags().GetString(submitFlagModelProvider)
	metadataPairs, _ := command.Flags().GetStringSlice(submitFlagMetadata)
	referenceValue, _ := command.Flags().GetString(submitFlagReferenceURL)
	environmentValue, _ := command.Flags().GetString(submitFlagEnvironment)

	form.SetTitle(titleValue)
	form.SetDescription(descriptionValue)
	form.SetModelName(modelNameValue)
	form.SetModelProvider(modelProviderValue)
	form.SetContactName(application.viewerName)
	form.SetContactEmail(application.viewerEmail)
	form.SetReferenceURL(referenceValue)
	if strings.TrimSpace(environmentValue) != "" {
		form.SetEnvironment(environmentValue)
	}
	for _, metadataPair := range metadataPairs {
		fieldName, fieldValue, separatorFound := strings.Cut(metadataPair, "=")
		if separatorFound {
			form.SetMetadataField(strings.TrimSpace(fieldName), fieldValue)
		}
	}

	if !form.CanSubmit() {
		return fmt.Errorf("%s", validationFailedMessage)
	}

	created, createErr := client.CreateFeedback(command.Context(), form.BuildPayload())
	if createErr != nil {
		return createErr
	}

	command.Printf("submitted %s: %s\n", created.ID, created.Title)
	return nil
}

func (application *boardApplication) voteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <feedback-id>",
		Short: "Toggle your upvote on a feedback item",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.client()
			if clientErr != nil {
				return clientErr
			}
			return client.ToggleFeedbackUpvote(command.Context(), arguments[0])
		},
	}
}

func (application *boardApplication) commentCommand() *cobra.Command {
	commentCommand := &cobra.Command{
		Use:   "comment <feedback-id>",
		Short: "Post a comment on a feedback item",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientErr := application.client()
			if clientErr != nil {
				return clientErr
			}
			commentText, _ := command.Flags().GetString(commentFlagText)
			if strings.TrimSpace(commentText) == "" {
				return fmt.Errorf("comment text is required")
			}
			return client.AddFeedbackComment(command.Context(), arguments[0], apiclient.CommentInput{
				Comment:       commentText,
				SubmitterName: application.viewerName,
			})
		},
	}
	commentCommand.Flags().String(commentFlagText, "", "comment text")
	return commentCommand
}

func main() {
	application := newBoardApplication()
	rootCommand := application.rootCommand()
	if executeErr := rootCommand.ExecuteContext(context.Background()); executeErr != nil {
		fmt.Fprintln(os.Stderr, executeErr.Error())
		os.Exit(1)
	}
}
