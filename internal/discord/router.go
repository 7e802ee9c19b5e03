package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-resty/resty/v2"

	"github.com/moorebrett0/regenmon/internal/chat"
	"github.com/moorebrett0/regenmon/internal/clock"
	"github.com/moorebrett0/regenmon/internal/economy"
	"github.com/moorebrett0/regenmon/internal/game"
	"github.com/moorebrett0/regenmon/internal/hub"
	"github.com/moorebrett0/regenmon/internal/pet"
	"github.com/moorebrett0/regenmon/internal/species"
	"github.com/moorebrett0/regenmon/internal/training"
)

// DefaultDownloadTimeout bounds attachment downloads.
const DefaultDownloadTimeout = 20 * time.Second

// Attachment is an uploaded file referenced by a command.
type Attachment struct {
	URL         string
	ContentType string
	Size        int
}

// Command is a slash command stripped of its Discord envelope.
type Command struct {
	Name       string
	UserID     string
	UserName   string
	ChannelID  string
	Options    map[string]any // string, int or bool values
	Attachment *Attachment
}

func (c Command) String(name string) string {
	s, _ := c.Options[name].(string)
	return strings.TrimSpace(s)
}

func (c Command) Int(name string, def int) int {
	switch v := c.Options[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func (c Command) Bool(name string) bool {
	b, _ := c.Options[name].(bool)
	return b
}

// Reply is what the bot sends back for a command.
type Reply struct {
	Content   string
	Embed     *discordgo.MessageEmbed
	Ephemeral bool
}

func text(format string, args ...any) Reply {
	return Reply{Content: fmt.Sprintf(format, args...)}
}

func failure(err error) Reply {
	return Reply{Content: ErrorMessage(err), Ephemeral: true}
}

// RouterOptions configures a Router.
type RouterOptions struct {
	Games  *game.Manager
	Hub    *hub.Client // nil when the HUB is off
	AppURL string
	Clock  clock.Clock
	Logger *slog.Logger

	DownloadTimeout time.Duration
}

// Router turns commands into game operations.
type Router struct {
	games  *game.Manager
	hub    *hub.Client
	appURL string
	clock  clock.Clock
	fetch  *resty.Client
	log    *slog.Logger
}

// NewRouter creates a router over the player sessions.
func NewRouter(opts RouterOptions) *Router {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	return &Router{
		games:  opts.Games,
		hub:    opts.Hub,
		appURL: opts.AppURL,
		clock:  opts.Clock,
		fetch:  resty.New().SetTimeout(opts.DownloadTimeout),
		log:    opts.Logger,
	}
}

// Deferred reports whether a command may take longer than Discord's
// three second response window.
func Deferred(name string) bool {
	switch name {
	case "hablar", "evaluar", "registrar", "ranking", "perfil", "visitar", "regalar", "mensaje":
		return true
	}
	return false
}

// Dispatch runs one command for the calling player.
func (r *Router) Dispatch(ctx context.Context, cmd Command) Reply {
	sess := r.games.Get(ctx, cmd.UserID)
	log := r.log.With("command", cmd.Name, "user", cmd.UserID)

	var reply Reply
	var err error
	switch cmd.Name {
	case "crear":
		reply, err = r.create(sess, cmd)
	case "estado":
		reply, err = r.status(sess)
	case "alimentar":
		reply, err = r.care(sess, sess.Feed)
	case "jugar":
		reply, err = r.care(sess, sess.Play)
	case "entrenar":
		reply, err = r.care(sess, sess.Train)
	case "nombre":
		reply, err = r.rename(sess, cmd)
	case "reiniciar":
		reply = r.reset(ctx, sess, cmd)
	case "hablar":
		reply, err = r.chat(ctx, sess, cmd.String("mensaje"))
	case "monedas":
		reply = r.coins(sess)
	case "historial":
		reply = Reply{Content: TemplateHistory(sess.History().Entries(), r.clock.Now())}
	case "evaluar":
		reply, err = r.evaluate(ctx, sess, cmd)
	case "registrar":
		reply, err = r.register(ctx, sess, cmd)
	case "ranking":
		reply, err = r.leaderboard(ctx, cmd)
	case "perfil":
		reply, err = r.profile(ctx, sess, cmd)
	case "visitar":
		reply, err = r.visit(ctx, sess, cmd)
	case "regalar":
		reply, err = r.gift(ctx, sess, cmd)
	case "mensaje":
		reply, err = r.message(ctx, sess, cmd)
	case "ayuda":
		reply = Reply{Content: TemplateHelp(), Ephemeral: true}
	default:
		reply = Reply{Content: "No conozco ese comando. Usa /ayuda.", Ephemeral: true}
	}
	if err != nil {
		if !expected(err) {
			log.Warn("discord: command failed", "err", err)
		}
		return failure(err)
	}
	return reply
}

// Mention answers a message that @mentions the bot.
func (r *Router) Mention(ctx context.Context, userID, msg string) Reply {
	sess := r.games.Get(ctx, userID)
	reply, err := r.chat(ctx, sess, msg)
	if err != nil {
		if !expected(err) {
			r.log.Warn("discord: mention chat failed", "user", userID, "err", err)
		}
		return failure(err)
	}
	return reply
}

// expected errors are player mistakes, not faults worth logging.
func expected(err error) bool {
	for _, target := range []error{
		chat.ErrEmpty, game.ErrNoPet, game.ErrCooldown, game.ErrCannotAfford, game.ErrInvalidName, game.ErrNoHub,
		training.ErrImageTooLarge, training.ErrNotImage,
		hub.ErrNotRegistered, hub.ErrInsufficient, hub.ErrMissingOwner, hub.ErrEmptyMessage,
		hub.ErrInvalidAmount, hub.ErrMissingID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (r *Router) create(sess *game.Session, cmd Command) (Reply, error) {
	if snap, err := sess.Snapshot(); err == nil {
		return Reply{Content: fmt.Sprintf("Ya tienes a %s %s. Usa /reiniciar si quieres empezar de nuevo.", snap.Sprite, snap.Name), Ephemeral: true}, nil
	}
	typ, ok := species.LookupType(cmd.String("tipo"))
	if !ok {
		return Reply{Content: "Ese tipo no existe. Elige uno de la lista.", Ephemeral: true}, nil
	}
	pers, ok := species.LookupPersonality(cmd.String("personalidad"))
	if !ok {
		return Reply{Content: "Esa personalidad no existe. Elige una de la lista.", Ephemeral: true}, nil
	}
	if !sess.Create(pet.CreateConfig{Type: typ.ID, Personality: pers.ID, Name: cmd.String("nombre")}) {
		return Reply{}, errors.New("discord: create refused")
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: TemplateHatched(snap)}, nil
}

func (r *Router) status(sess *game.Session) (Reply, error) {
	snap, err := sess.Snapshot()
	if err != nil {
		return Reply{}, err
	}
	embed := StatusEmbed(snap, sess.Coins().Balance(), sess.Training().Progress(), r.clock.Now())
	return Reply{Embed: embed}, nil
}

func (r *Router) care(sess *game.Session, act func() (pet.Result, error)) (Reply, error) {
	res, err := act()
	if err != nil {
		return Reply{}, err
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: TemplateAction(snap, res)}, nil
}

func (r *Router) rename(sess *game.Session, cmd Command) (Reply, error) {
	if err := sess.Rename(cmd.String("nuevo")); err != nil {
		return Reply{}, err
	}
	snap, err := sess.Snapshot()
	if err != nil {
		return Reply{}, err
	}
	return text("%s Ahora me llamo **%s**!", snap.Sprite, snap.Name), nil
}

func (r *Router) reset(ctx context.Context, sess *game.Session, cmd Command) Reply {
	if !cmd.Bool("confirmar") {
		return Reply{
			Content:   "Esto borra a tu Regenmon, su chat y su entrenamiento. Tus monedas se quedan. Usa `/reiniciar confirmar:True` para continuar.",
			Ephemeral: true,
		}
	}
	sess.Reset(ctx)
	return Reply{Content: "Tu Regenmon se fue a dormir para siempre... Usa /crear para empezar de nuevo."}
}

func (r *Router) chat(ctx context.Context, sess *game.Session, msg string) (Reply, error) {
	snap, err := sess.Snapshot()
	if err != nil {
		return Reply{}, err
	}
	reply, err := sess.Chat(ctx, msg)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: TemplateChat(snap, reply)}, nil
}

func (r *Router) coins(sess *game.Session) Reply {
	var delta *economy.Delta
	if d, ok := sess.Coins().Delta(); ok {
		delta = &d
	}
	return Reply{Content: TemplateCoins(sess.Coins().Balance(), delta), Ephemeral: true}
}

func (r *Router) evaluate(ctx context.Context, sess *game.Session, cmd Command) (Reply, error) {
	if _, err := sess.Snapshot(); err != nil {
		return Reply{}, err
	}
	if cmd.Attachment == nil {
		return Reply{}, training.ErrNotImage
	}
	img, err := r.download(ctx, *cmd.Attachment)
	if err != nil {
		return Reply{}, err
	}
	res, err := sess.Evaluate(ctx, img, cmd.String("categoria"))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Embed: TrainingEmbed(res)}, nil
}

// download fetches an attachment, refusing oversized or non-image files
// before any bytes are read when Discord already told us.
func (r *Router) download(ctx context.Context, a Attachment) (training.Image, error) {
	if a.Size > training.MaxImageSize {
		return training.Image{}, training.ErrImageTooLarge
	}
	if a.ContentType != "" && !strings.HasPrefix(a.ContentType, "image/") {
		return training.Image{}, training.ErrNotImage
	}
	resp, err := r.fetch.R().SetContext(ctx).Get(a.URL)
	if err != nil {
		return training.Image{}, fmt.Errorf("discord: download attachment: %w", err)
	}
	if resp.IsError() {
		return training.Image{}, fmt.Errorf("discord: download attachment: status %d", resp.StatusCode())
	}
	return training.Image{Data: resp.Body(), MediaType: a.ContentType}, nil
}

func (r *Router) register(ctx context.Context, sess *game.Session, cmd Command) (Reply, error) {
	owner := cmd.String("dueno")
	if owner == "" {
		owner = cmd.UserName
	}
	res, err := sess.RegisterHub(ctx, owner, cmd.String("email"), r.appURL)
	if err != nil {
		return Reply{}, err
	}
	if _, err := sess.SyncHub(ctx); err != nil {
		r.log.Debug("discord: sync after register failed", "user", cmd.UserID, "err", err)
	}
	return Reply{Content: TemplateRegistered(res)}, nil
}

func (r *Router) leaderboard(ctx context.Context, cmd Command) (Reply, error) {
	if r.hub == nil {
		return Reply{}, game.ErrNoHub
	}
	lb, err := r.hub.Leaderboard(ctx, cmd.Int("pagina", 1), hub.DefaultLeaderboardLimit)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: TemplateLeaderboard(lb)}, nil
}

// account returns the player's HUB account, or ErrNoHub.
func account(sess *game.Session) (*hub.Account, error) {
	acct := sess.Hub()
	if acct == nil {
		return nil, game.ErrNoHub
	}
	return acct, nil
}

func (r *Router) profile(ctx context.Context, sess *game.Session, cmd Command) (Reply, error) {
	acct, err := account(sess)
	if err != nil {
		return Reply{}, err
	}
	id := cmd.String("id")
	own := id == ""
	if own {
		reg := acct.Registration()
		if !reg.Active() {
			return Reply{}, hub.ErrNotRegistered
		}
		id = reg.ID
	}
	p, err := acct.Client().Profile(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	reply := Reply{Embed: ProfileEmbed(p, nil, r.clock.Now())}
	if own {
		activity, err := acct.Activity(ctx, hub.DefaultActivityLimit)
		if err != nil {
			r.log.Debug("discord: activity failed", "user", cmd.UserID, "err", err)
		}
		reply.Content = TemplateActivity(activity, r.clock.Now())
	}
	return reply, nil
}

func (r *Router) visit(ctx context.Context, sess *game.Session, cmd Command) (Reply, error) {
	acct, err := account(sess)
	if err != nil {
		return Reply{}, err
	}
	id := cmd.String("id")
	if id == "" {
		return Reply{}, hub.ErrMissingID
	}
	var fed string
	if cmd.Bool("alimentar") {
		res, err := acct.Feed(ctx, id)
		if err != nil {
			return Reply{}, err
		}
		fed = fmt.Sprintf("\U0001F34E Le diste de comer a %s (-%d $FRUTA).", res.TargetName, res.Cost)
		if res.SenderBalance != nil {
			fed += fmt.Sprintf(" Te quedan %d.", *res.SenderBalance)
		}
	}
	p, err := acct.Client().Profile(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	messages, err := acct.Client().Messages(ctx, id, hub.DefaultMessagesLimit)
	if err != nil {
		r.log.Debug("discord: messages failed", "target", id, "err", err)
	}
	return Reply{Content: fed, Embed: ProfileEmbed(p, messages, r.clock.Now())}, nil
}

func (r *Router) gift(ctx context.Context, sess *game.Session, cmd Command) (Reply, error) {
	acct, err := account(sess)
	if err != nil {
		return Reply{}, err
	}
	res, err := acct.Gift(ctx, cmd.String("id"), cmd.Int("cantidad", 0))
	if err != nil {
		return Reply{}, err
	}
	msg := fmt.Sprintf("\U0001F381 Le regalaste %d $FRUTA a %s.", res.Amount, res.TargetName)
	if res.SenderBalance != nil {
		msg += fmt.Sprintf(" Te quedan %d.", *res.SenderBalance)
	}
	return Reply{Content: msg}, nil
}

func (r *Router) message(ctx context.Context, sess *game.Session, cmd Command) (Reply, error) {
	acct, err := account(sess)
	if err != nil {
		return Reply{}, err
	}
	body := hub.TrimMessage(cmd.String("texto"))
	if err := acct.SendMessage(ctx, cmd.String("id"), body); err != nil {
		return Reply{}, err
	}
	return Reply{Content: fmt.Sprintf("\U0001F4EC Mensaje enviado: \"%s\"", body), Ephemeral: true}, nil
}
