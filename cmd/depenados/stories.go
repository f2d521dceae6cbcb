package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/models"
	"github.com/PortNumber53/depenados/internal/store"
	"github.com/spf13/cobra"
)

type storyFlags struct {
	title, content, excerpt, cover, author, authorID, event, tags string
	featured                                                      bool
	participants, media                                           []string
}

func (f *storyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "story title")
	cmd.Flags().StringVar(&f.content, "content", "", "story text")
	cmd.Flags().StringVar(&f.excerpt, "excerpt", "", "short summary")
	cmd.Flags().StringVar(&f.cover, "cover", "", "cover image URL")
	cmd.Flags().StringVar(&f.author, "author", "", "author nickname")
	cmd.Flags().StringVar(&f.authorID, "author-id", "", "author member ID")
	cmd.Flags().StringVar(&f.event, "event", "", "event ID")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma-separated tags")
	cmd.Flags().BoolVar(&f.featured, "featured", false, "mark as featured")
	cmd.Flags().StringSliceVar(&f.participants, "participant", nil, "participant member ID (repeatable)")
	cmd.Flags().StringSliceVar(&f.media, "media", nil, "media as TYPE=URL, e.g. image=https://... (repeatable)")
}

// parseMedia reads TYPE=URL pairs; a bare URL is taken as an image.
func parseMedia(specs []string) ([]models.MediaInput, error) {
	out := make([]models.MediaInput, 0, len(specs))
	for _, spec := range specs {
		typ, url, ok := strings.Cut(spec, "=")
		if !ok {
			typ, url = models.MediaTypeImage, spec
		}
		if !models.ValidMediaType(typ) {
			return nil, fmt.Errorf("tipo de mídia inválido %q", typ)
		}
		out = append(out, models.MediaInput{Type: typ, URL: url})
	}
	return out, nil
}

func (f *storyFlags) input(cmd *cobra.Command) (models.StoryInput, error) {
	var in models.StoryInput
	changed := cmd.Flags().Changed
	set := func(name string, dst **string, v string) {
		if changed(name) {
			*dst = models.StringPtr(v)
		}
	}
	set("title", &in.Title, f.title)
	set("content", &in.Content, f.content)
	set("excerpt", &in.Excerpt, f.excerpt)
	set("cover", &in.CoverImage, f.cover)
	set("author", &in.Author, f.author)
	set("author-id", &in.AuthorID, f.authorID)
	set("event", &in.EventID, f.event)
	if changed("tags") {
		tags := models.ParseTagList(f.tags)
		in.Tags = &tags
	}
	if changed("featured") {
		in.Featured = models.BoolPtr(f.featured)
	}
	if changed("participant") {
		in.ParticipantIDs = append([]string{}, f.participants...)
	}
	if changed("media") {
		media, err := parseMedia(f.media)
		if err != nil {
			return in, err
		}
		in.Media = media
	}
	return in, nil
}

func newStoriesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "stories", Aliases: []string{"historias"}, Short: "Manage stories"}

	var (
		featured bool
		search   string
		filter   string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stories, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Stories.Fetch(c.ctx(cmd), client.StoryFilter{Featured: featured, Search: search})
			if err := c.app.Stories.Err(); err != nil {
				return err
			}
			c.app.Stories.SetFilter(store.ParseStoryFilter(filter))
			rows := [][]string{}
			for _, s := range c.app.Stories.Filtered() {
				mark := ""
				if s.Featured {
					mark = "★"
				}
				rows = append(rows, []string{s.ID, mark, truncate(s.Title, 40), s.Author, strings.Join(s.Tags, ", "), formatDate(s.CreatedAt)})
			}
			c.println(c.st.table([]string{"ID", "", "HISTÓRIA", "AUTOR", "TAGS", "CRIADA"}, rows))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&featured, "featured", false, "only featured stories (server side)")
	listCmd.Flags().StringVar(&search, "search", "", "match title, content or author")
	listCmd.Flags().StringVar(&filter, "filter", "all", "all, featured or recent")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.app.Stories.FetchByID(c.ctx(cmd), args[0])
			if s == nil {
				return fmt.Errorf("história não encontrada")
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%s\n", c.st.title.Render(s.Title))
			fmt.Fprintf(&sb, "%s · %s\n", s.Author, formatDate(s.CreatedAt))
			if len(s.Tags) > 0 {
				fmt.Fprintf(&sb, "%s\n", c.st.muted.Render("#"+strings.Join(s.Tags, " #")))
			}
			sb.WriteString("\n" + s.Content)
			c.println(c.st.box.Render(sb.String()))
			for _, m := range s.Media {
				c.printf("[%s] %s %s\n", m.Type, m.URL, deref(m.Caption))
			}
			if len(s.Participants) > 0 {
				names := make([]string, 0, len(s.Participants))
				for _, p := range s.Participants {
					names = append(names, p.Nickname)
				}
				c.println("Participantes: " + strings.Join(names, ", "))
			}
			return nil
		},
	})

	var add storyFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Write a story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := add.input(cmd)
			if err != nil {
				return err
			}
			if err := models.ValidateStoryForm(in); err != nil {
				return err
			}
			return c.confirm(c.ctx(cmd), "Publicar "+*in.Title, func(ctx context.Context) error {
				s := c.app.Stories.Create(ctx, in)
				if s == nil {
					return failure(c.app.Stories.Err(), "não foi possível publicar a história")
				}
				c.println(c.st.ok.Render("História publicada: " + s.ID))
				return nil
			})
		},
	}
	add.register(addCmd)
	cmd.AddCommand(addCmd)

	var edit storyFlags
	editCmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change the given fields of a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := edit.input(cmd)
			if err != nil {
				return err
			}
			return c.confirm(c.ctx(cmd), "Editar história "+args[0], func(ctx context.Context) error {
				s := c.app.Stories.Update(ctx, args[0], in)
				if s == nil {
					return failure(c.app.Stories.Err(), "não foi possível editar a história")
				}
				c.println(c.st.ok.Render("História atualizada: " + s.Title))
				return nil
			})
		},
	}
	edit.register(editCmd)
	cmd.AddCommand(editCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm ID",
		Short: "Remove a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.confirm(c.ctx(cmd), "Remover história "+args[0], func(ctx context.Context) error {
				if !c.app.Stories.Delete(ctx, args[0]) {
					return failure(c.app.Stories.Err(), "não foi possível remover a história")
				}
				c.println(c.st.ok.Render("História removida"))
				return nil
			})
		},
	})
	return cmd
}
