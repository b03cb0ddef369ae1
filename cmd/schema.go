package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/rtsql/config"
	"github.com/cube2222/rtsql/rtsql"
	"github.com/cube2222/rtsql/serialization"
)

func readConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, errors.New("the --config flag is required")
	}
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read config")
	}
	return cfg, nil
}

func newSchemaCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:     "schema [stream...]",
		Short:   "Show the wire schema of declared streams.",
		Example: `rtsql schema --config streams.yaml orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(*configPath)
			if err != nil {
				return err
			}
			schemas, err := cfg.StreamSchemas(rtsql.NewInterner())
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				for _, stream := range cfg.Streams {
					names = append(names, stream.Name)
				}
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"stream", "field", "type", "wire"})
			table.SetAutoFormatHeaders(false)
			table.SetRowLine(false)

			for _, name := range names {
				recordType, ok := schemas[name]
				if !ok {
					return errors.Errorf("unknown stream %s", name)
				}
				fields, err := serialization.RecordSchema(recordType)
				if err != nil {
					return err
				}
				for i, field := range fields {
					wire := field.WireSchema.String()
					if field.Kind == serialization.WireKindUnsupported {
						wire = serialization.WireKindUnsupported.String()
					}
					table.Append([]string{
						name,
						field.Name,
						recordType.Record.Fields[i].Type.String(),
						wire,
					})
				}
			}
			table.Render()

			return nil
		},
	}
}
