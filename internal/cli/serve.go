package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/temirov/fileagg/internal/aggregate"
	"github.com/temirov/fileagg/internal/progress"
	"github.com/temirov/fileagg/internal/services/api"
	"github.com/temirov/fileagg/internal/traversal"
	"github.com/temirov/fileagg/internal/utils"
)

const (
	serveUse              = "serve [directory]"
	serveShortDescription = "serve aggregation over HTTP"
	serveLongDescription  = `Serve aggregation runs over HTTP for the given directory (default ".").
POST /aggregate with a JSON body such as {"directory":"src","fileTypes":["go"]} returns the aggregated text.
Requested directories are resolved against the served directory and may not leave it.`
	listenFlagName        = "listen"
	listenFlagDescription = "address to listen on"
	defaultListenAddress  = "127.0.0.1:8765"
	servingFormat         = "Serving %s on http://%s"
)

// createServeCommand returns the serve subcommand.
func createServeCommand(dependencies Dependencies) *cobra.Command {
	var listenAddress string

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := resolveWorkingDirectory(dependencies)
			if workingDirectoryError != nil {
				return workingDirectoryError
			}
			root := workingDirectory
			if len(arguments) == 1 {
				root = resolvePath(workingDirectory, arguments[0])
			}
			if rootInfo, statError := os.Stat(root); statError != nil || !rootInfo.IsDir() {
				return &aggregate.NotDirectoryError{Path: root, Err: statError}
			}

			signalContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.NewServer(api.Config{
				Address:    listenAddress,
				Root:       root,
				Aggregator: newRequestAggregator(dependencies),
				Logger:     dependencies.Logger,
			})
			return server.Run(signalContext, func(address string) {
				dependencies.Logger.Info(fmt.Sprintf(servingFormat, root, address))
			})
		},
	}
	serveCommand.Flags().StringVar(&listenAddress, listenFlagName, defaultListenAddress, listenFlagDescription)
	return serveCommand
}

// newRequestAggregator runs one aggregation per HTTP request. Token counting failures become response warnings.
func newRequestAggregator(dependencies Dependencies) api.Aggregator {
	return api.AggregatorFunc(func(_ context.Context, request api.AggregateRequest) (api.AggregateResponse, error) {
		options := traversal.Options{
			IncludeHidden:      request.IncludeHidden,
			EnforceIgnoreRules: !request.NoIgnore,
			Extensions:         utils.SplitFileTypes(strings.Join(request.FileTypes, ",")),
		}
		result, aggregateError := aggregate.Aggregate(request.Directory, options, aggregate.Dependencies{
			Logger:   dependencies.Logger,
			Progress: progress.Discard,
		})
		if aggregateError != nil {
			if errors.Is(aggregateError, aggregate.ErrNotDirectory) {
				return api.AggregateResponse{}, api.NewRequestError(http.StatusNotFound, aggregateError)
			}
			return api.AggregateResponse{}, aggregateError
		}

		response := api.AggregateResponse{Text: result.Text, Files: result.Files, Characters: result.Characters}
		if request.Tokens {
			countResult, resolvedModel, countError := countTokens(result.Text, request.Model, dependencies.NewCounter)
			switch {
			case countError != nil:
				response.Warnings = append(response.Warnings, countError.Error())
			case countResult.Counted:
				response.Tokens = countResult.Tokens
				response.Model = resolvedModel
			}
		}
		return response, nil
	})
}
