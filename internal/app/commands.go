package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"strings"

	"github.com/aora-app/client/internal/aora"
	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/models"
	"github.com/aora-app/client/internal/session"
)

func runCommand(ctx context.Context, adapter *aora.Adapter, facade *session.Facade, args []string) error {
	switch args[0] {
	case "register":
		return register(ctx, adapter, facade, args[1:])
	case "login":
		return login(ctx, adapter, facade, args[1:])
	case "logout":
		return logout(ctx, adapter, facade)
	case "whoami":
		return whoami(ctx, facade)
	case "feed":
		posts, err := adapter.ListPosts(ctx)
		if err != nil {
			return err
		}
		printPosts(posts)
		return nil
	case "latest":
		posts, err := adapter.ListLatestPosts(ctx, 0)
		if err != nil {
			return err
		}
		printPosts(posts)
		return nil
	case "search":
		if len(args) < 2 {
			return errors.New("usage: search <terms>")
		}
		posts, err := adapter.SearchPosts(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printPosts(posts)
		return nil
	case "mine":
		return mine(ctx, adapter, facade)
	case "upload":
		return upload(ctx, adapter, facade, args[1:])
	default:
		return fmt.Errorf("unknown command %q: %s", args[0], usage)
	}
}

func register(ctx context.Context, adapter *aora.Adapter, facade *session.Facade, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: register <email> <username>")
	}
	email, username := strings.TrimSpace(strings.ToLower(args[0])), strings.TrimSpace(args[1])

	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}
	if username == "" {
		return errors.New("username is required")
	}

	password, err := promptPassword("Choose a password: ")
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	identity, err := adapter.CreateAccount(ctx, email, password, username)
	if err != nil {
		return err
	}
	facade.Refresh(ctx)

	fmt.Printf("welcome, %s\n", identity.Username)
	return nil
}

func login(ctx context.Context, adapter *aora.Adapter, facade *session.Facade, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: login <email>")
	}
	email := strings.TrimSpace(strings.ToLower(args[0]))

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	if _, err := adapter.SignIn(ctx, email, password); err != nil {
		return err
	}
	facade.Refresh(ctx)

	fmt.Println("signed in")
	return nil
}

func logout(ctx context.Context, adapter *aora.Adapter, facade *session.Facade) error {
	if err := adapter.SignOut(ctx); err != nil {
		return err
	}
	facade.Refresh(ctx)

	fmt.Println("signed out")
	return nil
}

func whoami(ctx context.Context, facade *session.Facade) error {
	facade.Initialize(ctx)

	state := facade.Read()
	if !state.IsLoggedIn {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s <%s>\n", state.User.Username, state.User.Email)
	return nil
}

func mine(ctx context.Context, adapter *aora.Adapter, facade *session.Facade) error {
	facade.Initialize(ctx)

	state := facade.Read()
	if !state.IsLoggedIn {
		return errors.New("sign in first")
	}

	posts, err := adapter.ListUserPosts(ctx, state.User.ID)
	if err != nil {
		return err
	}
	printPosts(posts)
	return nil
}

func upload(ctx context.Context, adapter *aora.Adapter, facade *session.Facade, args []string) error {
	flags := flag.NewFlagSet("upload", flag.ContinueOnError)
	title := flags.String("title", "", "post title")
	prompt := flags.String("prompt", "", "the AI prompt behind the video")
	thumbnailPath := flags.String("thumbnail", "", "path to the thumbnail image")
	videoPath := flags.String("video", "", "path to the video file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *title == "" || *thumbnailPath == "" || *videoPath == "" {
		return errors.New("usage: upload -title <t> [-prompt <p>] -thumbnail <file> -video <file>")
	}

	facade.Initialize(ctx)
	state := facade.Read()
	if !state.IsLoggedIn {
		return errors.New("sign in first")
	}

	thumbnail, closeThumbnail, err := openUpload(*thumbnailPath)
	if err != nil {
		return err
	}
	defer closeThumbnail()

	video, closeVideo, err := openUpload(*videoPath)
	if err != nil {
		return err
	}
	defer closeVideo()

	post, err := adapter.CreateVideoPost(ctx, aora.UploadForm{
		Title:     *title,
		Prompt:    *prompt,
		Thumbnail: thumbnail,
		Video:     video,
		CreatorID: state.User.ID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("uploaded %q (%s)\n", post.Title, post.ID)
	return nil
}

func openUpload(path string) (backend.FileUpload, func(), error) {
	file, err := os.Open(path)
	if err != nil {
		return backend.FileUpload{}, nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return backend.FileUpload{}, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	upload := backend.FileUpload{
		Name: filepath.Base(path),
		MIME: mime.TypeByExtension(filepath.Ext(path)),
		Size: info.Size(),
		Body: file,
	}
	return upload, func() { file.Close() }, nil
}

func printPosts(posts []models.VideoPost) {
	if len(posts) == 0 {
		fmt.Println("no posts")
		return
	}
	for _, post := range posts {
		fmt.Printf("%s  %s  %s\n", post.CreatedAt.Format("2006-01-02 15:04"), post.Title, post.VideoURL)
	}
}
