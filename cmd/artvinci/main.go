package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/artvinci/artvinci-go/internal/api"
	"github.com/artvinci/artvinci-go/internal/cart"
	"github.com/artvinci/artvinci-go/internal/checkout"
	"github.com/artvinci/artvinci-go/internal/session"
	"github.com/artvinci/artvinci-go/internal/storage"
	"github.com/artvinci/artvinci-go/internal/transport"
	"github.com/artvinci/artvinci-go/pkg/config"
	pkgerrors "github.com/artvinci/artvinci-go/pkg/errors"
	"github.com/artvinci/artvinci-go/pkg/logger"
	"github.com/artvinci/artvinci-go/pkg/metrics"
	redisclient "github.com/artvinci/artvinci-go/pkg/redis"
	"github.com/artvinci/artvinci-go/pkg/stripe"
)

const usage = `usage: artvinci <command> [flags]

commands:
  login       sign in with email and password
  register    create an account
  verify      redeem the emailed verification code
  logout      sign out
  whoami      show the active session
  artworks    browse the gallery
  artwork     show one artwork
  artists     browse the artist directory
  forum       browse the forum (categories|topics|topic)
  cart        manage the cart (add|rm|list|clear)
  checkout    pay for the cart
  orders      list past orders
`

// deps is everything a subcommand can reach.
type deps struct {
	cfg      *config.Config
	logg     *logger.Logger
	api      *api.Client
	sessions *session.Manager
	state    *session.State
	cart     *cart.Store
	cleanup  func() error
}

// cliNavigator satisfies the transport's redirect hook. A terminal has no
// router, so "redirecting" means telling the user to sign in again. Auth
// commands suppress the hint; a failed login already explains itself.
type cliNavigator struct {
	authCommand bool
}

func (n *cliNavigator) OnAuthPage() bool {
	return n.authCommand
}

func (n *cliNavigator) RedirectToLogin() {
	fmt.Fprintln(os.Stderr, "your session has expired, run 'artvinci login' to sign in again")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	command := os.Args[1]
	args := os.Args[2:]

	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "artvinci"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "artvinci",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	d, err := buildDeps(ctx, cfg, logg, command)
	requireResource(ctx, logg, "client", err)

	runErr := dispatch(ctx, d, command, args)
	if err := d.cleanup(); err != nil {
		logg.Error(ctx, "closing resources", err)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, userMessage(runErr))
		os.Exit(1)
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, logg *logger.Logger, command string) (*deps, error) {
	store, cleanup, err := buildStorage(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}

	state, err := session.NewState(ctx, session.StateParams{Storage: store, Logger: logg})
	if err != nil {
		return nil, fmt.Errorf("building session state: %w", err)
	}

	authTransport, err := transport.New(transport.Params{
		State:     state,
		Navigator: &cliNavigator{authCommand: isAuthCommand(command)},
		BaseURL:   cfg.API.BaseURL,
		Logger:    logg,
		Metrics:   metrics.NewHTTPClientMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		return nil, fmt.Errorf("building auth transport: %w", err)
	}

	apiClient, err := api.NewClient(api.ClientParams{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		HTTPClient: &http.Client{
			Transport: authTransport,
			Timeout:   cfg.API.Timeout,
		},
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("building api client: %w", err)
	}

	manager, err := session.NewManager(session.ManagerParams{
		State:  state,
		API:    apiClient,
		Logger: logg,
	})
	if err != nil {
		return nil, fmt.Errorf("building session manager: %w", err)
	}

	cartStore, err := cart.NewStore(ctx, cart.StoreParams{Storage: store, Logger: logg})
	if err != nil {
		return nil, fmt.Errorf("building cart store: %w", err)
	}

	return &deps{
		cfg:      cfg,
		logg:     logg,
		api:      apiClient,
		sessions: manager,
		state:    state,
		cart:     cartStore,
		cleanup:  cleanup,
	}, nil
}

func buildStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Store, func() error, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		store, err := storage.NewRedisStore(client)
		if err != nil {
			return nil, nil, multierr.Append(err, client.Close())
		}
		return store, client.Close, nil
	default:
		store, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening storage dir: %w", err)
		}
		return store, func() error { return nil }, nil
	}
}

func dispatch(ctx context.Context, d *deps, command string, args []string) error {
	switch command {
	case "login":
		return runLogin(ctx, d, args)
	case "register":
		return runRegister(ctx, d, args)
	case "verify":
		return runVerify(ctx, d, args)
	case "logout":
		return runLogout(ctx, d)
	case "whoami":
		return runWhoami(ctx, d)
	case "artworks":
		return runArtworks(ctx, d, args)
	case "artwork":
		return runArtwork(ctx, d, args)
	case "artists":
		return runArtists(ctx, d, args)
	case "forum":
		return runForum(ctx, d, args)
	case "cart":
		return runCart(ctx, d, args)
	case "checkout":
		return runCheckout(ctx, d, args)
	case "orders":
		return runOrders(ctx, d)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func isAuthCommand(command string) bool {
	switch command {
	case "login", "register", "verify", "logout":
		return true
	}
	return false
}

func runLogin(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("login", flag.ExitOnError)
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	flags.Parse(args)

	sess, err := d.sessions.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if sess.User != nil {
		fmt.Printf("signed in as %s\n", sess.User.DisplayName())
	} else {
		fmt.Println("signed in")
	}
	return nil
}

func runRegister(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("register", flag.ExitOnError)
	username := flags.String("username", "", "account username")
	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	first := flags.String("first-name", "", "first name")
	last := flags.String("last-name", "", "last name")
	role := flags.String("role", "", "account role (buyer|artist)")
	flags.Parse(args)

	result, err := d.sessions.Register(ctx, api.RegisterRequest{
		Username:  *username,
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
		Role:      *role,
	})
	if err != nil {
		return err
	}
	if result.VerificationRequired {
		fmt.Printf("account created, check %s for a verification code and run 'artvinci verify'\n", result.Email)
		return nil
	}
	fmt.Println("account created, you are signed in")
	return nil
}

func runVerify(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("verify", flag.ExitOnError)
	email := flags.String("email", "", "account email (defaults to the pending registration)")
	code := flags.String("code", "", "6-digit verification code")
	resend := flags.Bool("resend", false, "mail a fresh code instead of verifying")
	flags.Parse(args)

	target := *email
	if target == "" {
		target = d.sessions.PendingVerificationEmail(ctx)
	}
	if target == "" {
		return fmt.Errorf("no pending registration, pass -email")
	}

	if *resend {
		if err := d.sessions.SendOTP(ctx, target); err != nil {
			return err
		}
		fmt.Printf("a fresh code is on its way to %s\n", target)
		return nil
	}

	sess, err := d.sessions.VerifyOTP(ctx, target, *code)
	if err != nil {
		return err
	}
	if sess.User != nil {
		fmt.Printf("verified, signed in as %s\n", sess.User.DisplayName())
	} else {
		fmt.Println("verified, you are signed in")
	}
	return nil
}

func runLogout(ctx context.Context, d *deps) error {
	if err := d.sessions.Logout(ctx); err != nil {
		// The local session is already gone; the backend failure is
		// informational.
		fmt.Fprintln(os.Stderr, "signed out locally (the server could not be reached)")
		return nil
	}
	fmt.Println("signed out")
	return nil
}

func runWhoami(ctx context.Context, d *deps) error {
	sess := d.sessions.Current()
	if !sess.Authenticated() {
		fmt.Println("not signed in")
		return nil
	}
	if sess.User != nil {
		fmt.Printf("%s <%s>\n", sess.User.DisplayName(), sess.User.Email)
		if sess.User.Role != "" {
			fmt.Printf("role: %s\n", sess.User.Role)
		}
	}
	if claims := d.state.Claims(); claims != nil && claims.ExpiresAt != nil {
		fmt.Printf("access token expires %s\n", claims.ExpiresAt.Time.Local().Format("2006-01-02 15:04:05"))
		if d.state.AccessTokenExpired(time.Now(), d.cfg.Token.ExpiryLeeway) {
			fmt.Println("the access token is expired; the next request will refresh it")
		}
	}
	return nil
}

func runArtworks(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("artworks", flag.ExitOnError)
	search := flags.String("search", "", "search term")
	category := flags.String("category", "", "category filter")
	page := flags.Int("page", 0, "result page")
	flags.Parse(args)

	list, err := d.api.ListArtworks(ctx, api.ArtworkQuery{
		Search:   *search,
		Category: *category,
		Page:     *page,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tPRICE")
	for _, art := range list.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\n", art.ID, art.Title, art.ArtistName, art.Price, art.Currency)
	}
	w.Flush()
	fmt.Printf("%d artwork(s)\n", list.Count)
	return nil
}

func runArtwork(ctx context.Context, d *deps, args []string) error {
	id, err := idArg(args, "artwork")
	if err != nil {
		return err
	}
	art, err := d.api.GetArtwork(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s by %s\n", art.Title, art.ArtistName)
	fmt.Printf("price: %s %s\n", art.Price, art.Currency)
	if art.Description != "" {
		fmt.Println(art.Description)
	}
	fmt.Printf("likes: %d  views: %d\n", art.LikesCount, art.ViewsCount)
	return nil
}

func runArtists(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("artists", flag.ExitOnError)
	search := flags.String("search", "", "search term")
	page := flags.Int("page", 0, "result page")
	flags.Parse(args)

	list, err := d.api.ListArtists(ctx, api.ArtistQuery{Search: *search, Page: *page})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFOLLOWERS\tARTWORKS")
	for _, artist := range list.Results {
		name := artist.Username
		if artist.FirstName != "" || artist.LastName != "" {
			name = fmt.Sprintf("%s %s", artist.FirstName, artist.LastName)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", artist.ID, name, artist.FollowersCount, artist.ArtworksCount)
	}
	w.Flush()
	return nil
}

func runForum(ctx context.Context, d *deps, args []string) error {
	if len(args) == 0 {
		args = []string{"categories"}
	}
	switch args[0] {
	case "categories":
		cats, err := d.api.ListCategories(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tTOPICS")
		for _, cat := range cats {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", cat.ID, cat.Name, cat.Type, cat.TopicsCount)
		}
		w.Flush()
		return nil
	case "topics":
		flags := flag.NewFlagSet("forum topics", flag.ExitOnError)
		category := flags.Int64("category", 0, "filter by category id")
		page := flags.Int("page", 0, "result page")
		flags.Parse(args[1:])

		list, err := d.api.ListTopics(ctx, api.TopicQuery{Category: *category, Page: *page})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tREPLIES\tVIEWS\tHELPFUL")
		for _, topic := range list.Results {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n",
				topic.ID, topic.Title, topic.RepliesCount, topic.ViewsCount, topic.HelpfulCount)
		}
		w.Flush()
		return nil
	case "topic":
		id, err := idArg(args[1:], "forum topic")
		if err != nil {
			return err
		}
		topic, err := d.api.GetTopic(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(topic.Title)
		if topic.Author != nil {
			fmt.Printf("by %s\n", topic.Author.DisplayName())
		}
		fmt.Println(topic.Content)
		fmt.Printf("helpful: %d  views: %d\n", topic.HelpfulCount, topic.ViewsCount)
		for _, reply := range topic.Replies {
			author := ""
			if reply.Author != nil {
				author = reply.Author.DisplayName()
			}
			fmt.Printf("- %s: %s (helpful %d)\n", author, reply.Content, reply.HelpfulCount)
		}
		return nil
	default:
		return fmt.Errorf("unknown forum command %q (want categories|topics|topic)", args[0])
	}
}

func runCart(ctx context.Context, d *deps, args []string) error {
	if len(args) == 0 {
		return runCartList(d)
	}
	switch args[0] {
	case "add":
		return runCartAdd(ctx, d, args[1:])
	case "rm":
		id, err := idArg(args[1:], "cart rm")
		if err != nil {
			return err
		}
		d.cart.Remove(ctx, id)
		fmt.Println("removed")
		return nil
	case "list":
		return runCartList(d)
	case "clear":
		d.cart.Clear(ctx)
		fmt.Println("cart cleared")
		return nil
	default:
		return fmt.Errorf("unknown cart command %q (want add|rm|list|clear)", args[0])
	}
}

func runCartAdd(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("cart add", flag.ExitOnError)
	qty := flags.Int("qty", 1, "quantity")
	flags.Parse(args)

	id, err := idArg(flags.Args(), "cart add")
	if err != nil {
		return err
	}
	art, err := d.api.GetArtwork(ctx, id)
	if err != nil {
		return err
	}
	d.cart.Add(ctx, cart.Item{
		ID:         art.ID,
		Title:      art.Title,
		ArtistName: art.ArtistName,
		Price:      art.Price,
		Currency:   art.Currency,
		ImageURL:   art.PrimaryImage,
	}, *qty)
	fmt.Printf("added %q to the cart\n", art.Title)
	return nil
}

func runCartList(d *deps) error {
	lines := d.cart.Lines()
	if len(lines) == 0 {
		fmt.Println("the cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tQTY\tPRICE")
	for _, line := range lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s %s\n",
			line.ID, line.Title, line.ArtistName, line.Quantity, line.Price, line.Currency)
	}
	w.Flush()

	currencies := d.cart.Currencies()
	if len(currencies) > 1 {
		fmt.Fprintf(os.Stderr, "warning: the cart mixes currencies %v, the total is a raw sum\n", currencies)
	}
	suffix := ""
	if len(currencies) == 1 {
		suffix = " " + currencies[0]
	}
	fmt.Printf("total: %s%s\n", d.cart.Total().StringFixed(2), suffix)
	return nil
}

func runCheckout(ctx context.Context, d *deps, args []string) error {
	flags := flag.NewFlagSet("checkout", flag.ExitOnError)
	address := flags.String("address", "", "shipping address")
	phone := flags.String("phone", "", "contact phone number")
	notes := flags.String("notes", "", "delivery notes")
	paymentMethod := flags.String("payment-method", "", "payment method id")
	flags.Parse(args)

	confirmer, err := stripe.NewClient(ctx, d.cfg.Stripe, d.logg)
	if err != nil {
		return fmt.Errorf("initializing the payment processor: %w", err)
	}

	service, err := checkout.NewService(checkout.ServiceParams{
		Cart:      d.cart,
		Sales:     d.api,
		Confirmer: confirmer,
		Logger:    d.logg,
	})
	if err != nil {
		return err
	}

	result, err := service.Checkout(ctx, checkout.Request{
		ShippingAddress: *address,
		PhoneNumber:     *phone,
		Notes:           *notes,
		PaymentMethodID: *paymentMethod,
	})
	if err != nil {
		return err
	}
	if result.Order != nil {
		fmt.Printf("order %d placed, total %s\n", result.Order.ID, result.Order.TotalPrice)
	} else {
		fmt.Println("order placed")
	}
	return nil
}

func runOrders(ctx context.Context, d *deps) error {
	list, err := d.api.ListOrders(ctx)
	if err != nil {
		return err
	}
	if len(list.Results) == 0 {
		fmt.Println("no orders yet")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTOTAL\tITEMS")
	for _, order := range list.Results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", order.ID, order.Status, order.TotalPrice, len(order.Items))
	}
	w.Flush()
	return nil
}

func idArg(args []string, command string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s needs an id", command)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a valid id", args[0])
	}
	return id, nil
}

// userMessage picks the friendliest text available for an error.
func userMessage(err error) string {
	var unrecorded *checkout.UnrecordedPaymentError
	if errors.As(err, &unrecorded) {
		return fmt.Sprintf(
			"your card was charged but the order could not be recorded; contact support with payment reference %s",
			unrecorded.IntentID)
	}
	if coded := pkgerrors.As(err); coded != nil {
		return coded.UserMessage()
	}
	return err.Error()
}

func requireResource(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("failed to initialize %s", name), err)
	fmt.Fprintf(os.Stderr, "failed to initialize %s: %v\n", name, err)
	os.Exit(1)
}
