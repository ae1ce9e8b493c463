// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes circulation tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/circulation"
	"github.com/starford/lending/internal/inbox"
	"github.com/starford/lending/internal/models"
)

const rulesURI = "lending://rules"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server wraps the MCP server with circulation tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *circulation.Service
	cards *inbox.FS
}

// New creates a new MCP server with all circulation tools registered.
// cards may be nil, in which case put_card is not offered.
func New(svc *circulation.Service, cards *inbox.FS) *Server {
	s := &Server{svc: svc, cards: cards}

	s.mcp = server.NewMCPServer(
		"Lending",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("find_available",
		mcp.WithDescription("List items that can be checked out right now, optionally filtered by author and genre (case-insensitive substrings)."),
		mcp.WithString("author", mcp.Description("Author substring")),
		mcp.WithString("genre", mcp.Description("Genre substring")),
	), s.findAvailable)

	s.mcp.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Add a new item to the catalog. New items are available."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Item title")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Item author")),
		mcp.WithNumber("year", mcp.Description("Publication year")),
		mcp.WithString("genre", mcp.Description("Genre")),
	), s.addItem)

	s.mcp.AddTool(mcp.NewTool("add_borrower",
		mcp.WithDescription("Register a borrower. A non-empty contact must be unique."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Borrower name")),
		mcp.WithString("contact", mcp.Description("E-mail or other unique contact")),
		mcp.WithString("phone", mcp.Description("Phone number")),
	), s.addBorrower)

	s.mcp.AddTool(mcp.NewTool("find_borrower",
		mcp.WithDescription("Look up a registered borrower by contact (case-insensitive)."),
		mcp.WithString("contact", mcp.Required(), mcp.Description("Borrower contact")),
	), s.findBorrower)

	s.mcp.AddTool(mcp.NewTool("checkout",
		mcp.WithDescription("Lend an available item to a borrower. Read the lending rules first via get_lending_rules or the lending://rules resource."),
		mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Item ID")),
		mcp.WithNumber("borrower_id", mcp.Required(), mcp.Description("Borrower ID")),
	), s.checkout)

	s.mcp.AddTool(mcp.NewTool("return_loan",
		mcp.WithDescription("Close an open loan and make its item available again."),
		mcp.WithNumber("loan_id", mcp.Required(), mcp.Description("Loan ID")),
	), s.returnLoan)

	s.mcp.AddTool(mcp.NewTool("active_loans",
		mcp.WithDescription("List a borrower's open loans with item titles, oldest first."),
		mcp.WithNumber("borrower_id", mcp.Required(), mcp.Description("Borrower ID")),
	), s.activeLoans)

	s.mcp.AddTool(mcp.NewTool("overdue_loans",
		mcp.WithDescription("List open loans older than a threshold in days."),
		mcp.WithNumber("days", mcp.Description("Threshold in days; defaults to the configured value")),
	), s.overdueLoans)

	s.mcp.AddTool(mcp.NewTool("loan_history",
		mcp.WithDescription("List every loan of an item, open and closed."),
		mcp.WithNumber("item_id", mcp.Required(), mcp.Description("Item ID")),
	), s.loanHistory)

	s.mcp.AddTool(mcp.NewTool("get_lending_rules",
		mcp.WithDescription("Returns the circulation rules and the item card format."),
	), s.getLendingRules)

	if cards != nil {
		s.mcp.AddTool(mcp.NewTool("put_card",
			mcp.WithDescription("Write a Markdown item card into the catalog inbox and import it. "+
				"Content MUST follow the card format described by get_lending_rules."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Relative card path (must end with .md)")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Card Markdown with YAML frontmatter")),
		), s.putCard)
	}

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Lending Rules",
			mcp.WithResourceDescription("Circulation rules and the item card format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findAvailable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.FindAvailable(ctx, models.ItemFilter{
		Author: req.GetString("author", ""),
		Genre:  req.GetString("genre", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no available items"), nil
	}
	return jsonResult(items)
}

func (s *Server) addItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	author, err := req.RequireString("author")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var year *int
	if y, yErr := req.RequireInt("year"); yErr == nil {
		year = &y
	}
	it, err := s.svc.AddItem(ctx, title, author, year, req.GetString("genre", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(it)
}

func (s *Server) addBorrower(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.AddBorrower(ctx, name, req.GetString("contact", ""), req.GetString("phone", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}

func (s *Server) findBorrower(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contact, err := req.RequireString("contact")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.svc.FindByContact(ctx, contact)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}

func (s *Server) checkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireInt("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	borrowerID, err := req.RequireInt("borrower_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loan, err := s.svc.Checkout(ctx, models.ItemID(itemID), models.BorrowerID(borrowerID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(loan)
}

func (s *Server) returnLoan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loanID, err := req.RequireInt("loan_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loan, err := s.svc.Return(ctx, models.LoanID(loanID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(loan)
}

func (s *Server) activeLoans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	borrowerID, err := req.RequireInt("borrower_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loans, err := s.svc.ActiveLoansOf(ctx, models.BorrowerID(borrowerID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(loans) == 0 {
		return mcp.NewToolResultText("no open loans"), nil
	}
	return jsonResult(loans)
}

func (s *Server) overdueLoans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", s.svc.OverdueDays())
	loans, err := s.svc.OverdueLoans(ctx, days)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(loans) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no loans open longer than %d days", days)), nil
	}
	return jsonResult(loans)
}

func (s *Server) loanHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemID, err := req.RequireInt("item_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loans, err := s.svc.LoanHistory(ctx, models.ItemID(itemID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(loans) == 0 {
		return mcp.NewToolResultText("item has never been lent"), nil
	}
	return jsonResult(loans)
}

func (s *Server) putCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, outcome, err := inbox.Put(ctx, s.svc, s.cards, path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if outcome != catalog.CardUnchanged {
		s.svc.ItemImported(id, path, outcome)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: item %d", outcome, id)), nil
}

func (s *Server) getLendingRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LendingRules), nil
}

func (s *Server) readRulesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     LendingRules,
		},
	}, nil
}
