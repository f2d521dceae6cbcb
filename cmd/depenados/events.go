package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"github.com/spf13/cobra"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// parseDate accepts RFC 3339 or a local "YYYY-MM-DD[ HH:MM]".
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("data inválida %q (use AAAA-MM-DD HH:MM)", s)
}

type eventFlags struct {
	title, description, location, date, cover, createdBy, creatorID, status string
	participants                                                          []string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "event title")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.location, "location", "", "where it happens")
	cmd.Flags().StringVar(&f.date, "date", "", "when (YYYY-MM-DD HH:MM or RFC 3339)")
	cmd.Flags().StringVar(&f.cover, "cover", "", "cover image URL")
	cmd.Flags().StringVar(&f.createdBy, "created-by", "", "organizer nickname")
	cmd.Flags().StringVar(&f.creatorID, "creator-id", "", "organizer member ID")
	cmd.Flags().StringVar(&f.status, "status", "", "upcoming, ongoing, completed or cancelled")
	cmd.Flags().StringSliceVar(&f.participants, "participant", nil, "participant member ID (repeatable)")
}

func (f *eventFlags) input(cmd *cobra.Command) (models.EventInput, error) {
	var in models.EventInput
	changed := cmd.Flags().Changed
	set := func(name string, dst **string, v string) {
		if changed(name) {
			*dst = models.StringPtr(v)
		}
	}
	set("title", &in.Title, f.title)
	set("description", &in.Description, f.description)
	set("location", &in.Location, f.location)
	set("cover", &in.CoverImage, f.cover)
	set("created-by", &in.CreatedBy, f.createdBy)
	set("creator-id", &in.CreatorID, f.creatorID)
	set("status", &in.Status, f.status)
	if changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return in, err
		}
		in.Date = &d
	}
	if changed("participant") {
		in.ParticipantIDs = append([]string{}, f.participants...)
	}
	return in, nil
}

func (c *cli) printEvents(events []models.EventListItem) {
	rows := [][]string{}
	for _, e := range events {
		stories := len(e.Stories)
		if e.Count != nil {
			stories = e.Count.Stories
		}
		rows = append(rows, []string{e.ID, e.Title, formatDate(e.Date), deref(e.Location), e.Status, fmt.Sprint(stories)})
	}
	c.println(c.st.table([]string{"ID", "EVENTO", "DATA", "LOCAL", "STATUS", "HISTÓRIAS"}, rows))
}

func newEventsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "events", Aliases: []string{"eventos"}, Short: "Manage events"}

	var status string
	var upcoming bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List events by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Events.Fetch(c.ctx(cmd), client.EventFilter{Status: status, Upcoming: upcoming})
			c.printEvents(c.app.Events.Events())
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "only events with this status")
	listCmd.Flags().BoolVar(&upcoming, "upcoming", false, "only future upcoming or ongoing events")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "upcoming",
		Short: "Show the next five events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Events.Fetch(c.ctx(cmd), client.EventFilter{})
			c.printEvents(c.app.Events.Upcoming(c.now()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show an event with its stories and participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.api.GetEvent(c.ctx(cmd), args[0])
			if err != nil {
				return err
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%s  %s\n", c.st.title.Render(e.Title), c.st.muted.Render(e.Status))
			fmt.Fprintf(&sb, "%s", formatDate(e.Date))
			if e.Location != nil {
				fmt.Fprintf(&sb, " · %s", *e.Location)
			}
			fmt.Fprintf(&sb, "\nOrganização: %s", e.CreatedBy)
			if e.Description != nil {
				fmt.Fprintf(&sb, "\n%s", *e.Description)
			}
			c.println(c.st.box.Render(sb.String()))

			people := make([]string, 0, len(e.Participants))
			for _, p := range e.Participants {
				people = append(people, p.Nickname)
			}
			if len(people) > 0 {
				c.println("Participantes: " + strings.Join(people, ", "))
			}
			rows := [][]string{}
			for _, s := range e.Stories {
				rows = append(rows, []string{s.ID, s.Title, s.Author})
			}
			c.println(c.st.table([]string{"ID", "HISTÓRIA", "AUTOR"}, rows))
			return nil
		},
	})

	var add eventFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := add.input(cmd)
			if err != nil {
				return err
			}
			if err := models.ValidateEventForm(in); err != nil {
				return err
			}
			return c.confirm(c.ctx(cmd), "Criar evento "+*in.Title, func(ctx context.Context) error {
				e := c.app.Events.Create(ctx, in)
				if e == nil {
					return failure(nil, "não foi possível criar o evento")
				}
				c.println(c.st.ok.Render("Evento criado: " + e.ID))
				return nil
			})
		},
	}
	add.register(addCmd)
	cmd.AddCommand(addCmd)

	var edit eventFlags
	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the given fields of an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := edit.input(cmd)
			if err != nil {
				return err
			}
			if in.Status != nil && !models.ValidEventStatus(*in.Status) {
				return fmt.Errorf("status inválido %q", *in.Status)
			}
			return c.confirm(c.ctx(cmd), "Editar evento "+args[0], func(ctx context.Context) error {
				e := c.app.Events.Update(ctx, args[0], in)
				if e == nil {
					return failure(nil, "não foi possível editar o evento")
				}
				c.println(c.st.ok.Render("Evento atualizado: " + e.Title))
				return nil
			})
		},
	}
	edit.register(editCmd)
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm ID",
		Short: "Remove an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.confirm(c.ctx(cmd), "Remover evento "+args[0], func(ctx context.Context) error {
				if !c.app.Events.Delete(ctx, args[0]) {
					return failure(nil, "não foi possível remover o evento")
				}
				c.println(c.st.ok.Render("Evento removido"))
				return nil
			})
		},
	})
	return cmd
}
