package mcpserver

// LendingRules describes how circulation works and how item cards are
// written, for LLM consumers that operate the ledger.
const LendingRules = `# Lending Rules

## Circulation

1. An item is either **available** or **on loan** to exactly one borrower.
2. ` + "`checkout`" + ` lends an available item. It fails with:
   - ` + "`item not found`" + ` when the item id is unknown,
   - ` + "`borrower not found`" + ` when the borrower id is unknown,
   - ` + "`item unavailable`" + ` when someone already holds the item.
   Checks run in that order; a failed checkout changes nothing.
3. ` + "`return_loan`" + ` closes an open loan and makes the item available again.
   Returning an unknown or already closed loan fails with ` + "`loan not found`" + `.
4. A loan is **overdue** when it has been open strictly longer than the
   threshold (default 30 days). A loan opened exactly 30 days ago is not
   overdue yet.
5. Borrower contacts are unique, compared case-insensitively. An empty
   contact is allowed for any number of borrowers.

## Searching

` + "`find_available`" + ` matches ` + "`author`" + ` and ` + "`genre`" + ` as case-insensitive
substrings. Both filters are optional and combine with AND. Results are
ordered by item id.

## Item cards

Items can also be added as Markdown cards (` + "`put_card`" + `, when the inbox is
enabled). Paths end with ` + "`.md`" + ` and use forward slashes.

` + "```" + `markdown
---
title: Nineteen Eighty-Four   # optional, falls back to the first "# " heading
author: George Orwell         # REQUIRED
year: 1949                    # optional integer
genre: Dystopia               # optional
---

Free-form notes about this copy.
` + "```" + `

Rewriting a card updates the item's title, author, year and genre. It never
changes whether the item is on loan. Deleting a card leaves the item in the
catalog.
`
