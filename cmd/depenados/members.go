package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/PortNumber53/depenados/internal/models"
	"github.com/spf13/cobra"
)

type memberFlags struct {
	name, nickname, avatar, bio, role string
}

func (f *memberFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().StringVar(&f.nickname, "nickname", "", "unique nickname")
	cmd.Flags().StringVar(&f.avatar, "avatar", "", "avatar image URL")
	cmd.Flags().StringVar(&f.bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&f.role, "role", "", "role in the crew")
}

// input includes only the flags the user actually set.
func (f *memberFlags) input(cmd *cobra.Command) models.MemberInput {
	var in models.MemberInput
	set := func(name string, dst **string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = models.StringPtr(v)
		}
	}
	set("name", &in.Name, f.name)
	set("nickname", &in.Nickname, f.nickname)
	set("avatar", &in.Avatar, f.avatar)
	set("bio", &in.Bio, f.bio)
	set("role", &in.Role, f.role)
	return in
}

func newMembersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "members", Aliases: []string{"membros"}, Short: "Manage members"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List members by nickname",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Members.Fetch(c.ctx(cmd))
			if err := c.app.Members.Err(); err != nil {
				return err
			}
			rows := [][]string{}
			for _, m := range c.app.Members.Members() {
				stories, events := "0", "0"
				if m.Count != nil {
					stories = fmt.Sprint(m.Count.StoriesAuthored + m.Count.StoriesIn)
					events = fmt.Sprint(m.Count.EventsCreated + m.Count.EventsIn)
				}
				rows = append(rows, []string{m.ID, m.Nickname, m.Name, deref(m.Role), stories, events})
			}
			c.println(c.st.table([]string{"ID", "APELIDO", "NOME", "PAPEL", "HISTÓRIAS", "EVENTOS"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show a member with recent stories and events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := c.app.Members.FetchByID(c.ctx(cmd), args[0])
			if m == nil {
				return failure(c.app.Members.Err(), "membro não encontrado")
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%s (%s)\n", c.st.title.Render(m.Nickname), m.Name)
			if m.Role != nil {
				fmt.Fprintf(&sb, "%s\n", *m.Role)
			}
			if m.Bio != nil {
				fmt.Fprintf(&sb, "%s\n", c.st.muted.Render(*m.Bio))
			}
			fmt.Fprintf(&sb, "Desde %s", formatDate(m.JoinedAt))
			c.println(c.st.box.Render(sb.String()))

			storyRows := [][]string{}
			for _, s := range append(m.StoriesAuthored, m.StoriesIn...) {
				storyRows = append(storyRows, []string{s.ID, s.Title, formatDate(s.CreatedAt)})
			}
			c.println(c.st.table([]string{"ID", "HISTÓRIA", "CRIADA"}, storyRows))
			eventRows := [][]string{}
			for _, e := range append(m.EventsCreated, m.EventsIn...) {
				eventRows = append(eventRows, []string{e.ID, e.Title, formatDate(e.Date)})
			}
			c.println(c.st.table([]string{"ID", "EVENTO", "DATA"}, eventRows))
			return nil
		},
	})

	var add memberFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := add.input(cmd)
			if err := models.ValidateMemberForm(in); err != nil {
				return err
			}
			return c.confirm(c.ctx(cmd), "Adicionar "+*in.Nickname, func(ctx context.Context) error {
				m := c.app.Members.Create(ctx, in)
				if m == nil {
					return failure(c.app.Members.Err(), "não foi possível adicionar o membro")
				}
				c.println(c.st.ok.Render("Membro adicionado: " + m.ID))
				return nil
			})
		},
	}
	add.register(addCmd)
	cmd.AddCommand(addCmd)

	var edit memberFlags
	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the given fields of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := edit.input(cmd)
			return c.confirm(c.ctx(cmd), "Editar membro "+args[0], func(ctx context.Context) error {
				m := c.app.Members.Update(ctx, args[0], in)
				if m == nil {
					return failure(c.app.Members.Err(), "não foi possível editar o membro")
				}
				c.println(c.st.ok.Render("Membro atualizado: " + m.Nickname))
				return nil
			})
		},
	}
	edit.register(editCmd)
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm ID",
		Short: "Remove a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.confirm(c.ctx(cmd), "Remover membro "+args[0], func(ctx context.Context) error {
				if !c.app.Members.Delete(ctx, args[0]) {
					return failure(c.app.Members.Err(), "não foi possível remover o membro")
				}
				c.println(c.st.ok.Render("Membro removido"))
				return nil
			})
		},
	})
	return cmd
}
