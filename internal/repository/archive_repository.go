package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-archiver/internal/domain"
)

// ErrNotFound is returned when a looked up record does not exist.
var ErrNotFound = errors.New("record not found")

// TicketRef identifies a ticket either by global id or by its number within a guild.
type TicketRef struct {
	ID      domain.TicketID
	GuildID domain.GuildID
	Number  int
}

// ByNumber reports whether the reference is a per-guild ticket number.
func (r TicketRef) ByNumber() bool {
	return r.ID == "" && r.GuildID != ""
}

func (r TicketRef) String() string {
	if r.ByNumber() {
		return fmt.Sprintf("%s#%d", r.GuildID, r.Number)
	}
	return r.ID.String()
}

// ArchiveRepository reads archived tickets and updates the archival status of their messages.
type ArchiveRepository interface {
	// FindTicket loads the full ticket graph with non-external messages in canonical order.
	FindTicket(ctx context.Context, ref TicketRef) (*domain.Ticket, error)
	// FindTicketByChannel loads the ticket opened in a channel, without its messages.
	FindTicketByChannel(ctx context.Context, channelID domain.ChannelID) (*domain.Ticket, error)
	FindArchivedMessage(ctx context.Context, id domain.MessageID) (*domain.ArchivedMessage, error)
	// MarkMessageDeleted flags a message as deleted and returns the number of rows matched.
	MarkMessageDeleted(ctx context.Context, id domain.MessageID) (int64, error)
	FindSettings(ctx context.Context, guildID domain.GuildID) (*domain.Settings, error)
}

type archiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository instantiates repository.
func NewArchiveRepository(pool *pgxpool.Pool) ArchiveRepository {
	return &archiveRepository{pool: pool}
}

const ticketColumns = `
        SELECT t.id, t.guild_id, t.number, t.topic, t.created_by_id, t.claimed_by_id, t.closed_by_id,
               t.closed_reason, t.pinned_message_ids, t.created_at, t.closed_at,
               c.id, c.name, c.channel_name, c.staff_roles,
               g.locale, g.archive, g.footer, g.error_colour,
               f.rating, f.comment
        FROM tickets t
        JOIN categories c ON c.id = t.category_id
        JOIN guilds g ON g.id = t.guild_id
        LEFT JOIN feedback f ON f.ticket_id = t.id`

func (r *archiveRepository) FindTicket(ctx context.Context, ref TicketRef) (*domain.Ticket, error) {
	var (
		ticket *domain.Ticket
		err    error
	)
	if ref.ByNumber() {
		ticket, err = r.fetchTicket(ctx, ticketColumns+` WHERE t.guild_id=$1 AND t.number=$2`, ref.GuildID, ref.Number)
	} else {
		ticket, err = r.fetchTicket(ctx, ticketColumns+` WHERE t.id=$1`, ref.ID)
	}
	if err != nil {
		return nil, err
	}

	users, err := r.archivedUsers(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.CreatedBy = users.resolve(ticket.CreatedBy)
	ticket.ClaimedBy = users.resolve(ticket.ClaimedBy)
	ticket.ClosedBy = users.resolve(ticket.ClosedBy)

	if ticket.QuestionAnswers, err = r.questionAnswers(ctx, ticket.ID); err != nil {
		return nil, err
	}
	if ticket.ArchivedMessages, err = r.listMessages(ctx, ticket.ID, users); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *archiveRepository) FindTicketByChannel(ctx context.Context, channelID domain.ChannelID) (*domain.Ticket, error) {
	return r.fetchTicket(ctx, ticketColumns+` WHERE t.id=$1`, channelID)
}

func (r *archiveRepository) fetchTicket(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var (
		ticket              domain.Ticket
		createdBy           string
		claimedBy, closedBy *string
		pinned, staffRoles  []string
		closedAt            *time.Time
		rating              *int32
		comment             *string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.GuildID,
		&ticket.Number,
		&ticket.Topic,
		&createdBy,
		&claimedBy,
		&closedBy,
		&ticket.ClosedReason,
		&pinned,
		&ticket.CreatedAt,
		&closedAt,
		&ticket.Category.ID,
		&ticket.Category.Name,
		&ticket.Category.ChannelName,
		&staffRoles,
		&ticket.Guild.Locale,
		&ticket.Guild.Archive,
		&ticket.Guild.Footer,
		&ticket.Guild.ErrorColour,
		&rating,
		&comment,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ticket.Guild.GuildID = ticket.GuildID
	ticket.ClosedAt = closedAt
	ticket.CreatedBy = &domain.User{ID: domain.UserID(createdBy)}
	if claimedBy != nil {
		ticket.ClaimedBy = &domain.User{ID: domain.UserID(*claimedBy)}
	}
	if closedBy != nil {
		ticket.ClosedBy = &domain.User{ID: domain.UserID(*closedBy)}
	}
	for _, id := range pinned {
		ticket.PinnedMessageIDs = append(ticket.PinnedMessageIDs, domain.MessageID(id))
	}
	for _, id := range staffRoles {
		ticket.Category.StaffRoles = append(ticket.Category.StaffRoles, domain.RoleID(id))
	}
	if rating != nil {
		ticket.Feedback = &domain.Feedback{Rating: int(*rating)}
		if comment != nil {
			ticket.Feedback.Comment = *comment
		}
	}
	return &ticket, nil
}

// userSet indexes the user snapshots archived with a ticket.
type userSet map[domain.UserID]*domain.User

// resolve swaps a bare user reference for its archived snapshot when one exists.
func (s userSet) resolve(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	if full, ok := s[u.ID]; ok {
		return full
	}
	return u
}

func (r *archiveRepository) archivedUsers(ctx context.Context, ticketID domain.TicketID) (userSet, error) {
	const query = `
        SELECT user_id, username, display_name, bot
        FROM archived_users WHERE ticket_id=$1`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := userSet{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Bot); err != nil {
			return nil, err
		}
		users[u.ID] = &u
	}
	return users, rows.Err()
}

func (r *archiveRepository) questionAnswers(ctx context.Context, ticketID domain.TicketID) ([]domain.QuestionAnswer, error) {
	const query = `
        SELECT question, value
        FROM question_answers WHERE ticket_id=$1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.QuestionAnswer
	for rows.Next() {
		var qa domain.QuestionAnswer
		if err := rows.Scan(&qa.Question, &qa.Value); err != nil {
			return nil, err
		}
		result = append(result, qa)
	}
	return result, rows.Err()
}
