// Package stats computes engagement metrics over the indexed message
// table. Every function takes a Filter; an empty Sender means the whole
// chat, an empty ChatKey means all indexed chats. System notices are
// excluded everywhere except raw message totals.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kavmehta/chatlens/internal/index"
)

type Filter struct {
	ChatKey string
	Sender  string // "" = overall
}

func (f Filter) where() (string, []interface{}) {
	conds := []string{"1=1"}
	var args []interface{}
	if f.ChatKey != "" {
		conds = append(conds, "chat_key = ?")
		args = append(args, f.ChatKey)
	}
	if f.Sender != "" {
		conds = append(conds, "sender = ?")
		args = append(args, f.Sender)
	}
	return strings.Join(conds, " AND "), args
}

// Overview is the core engagement profile: volume (messages, words) plus
// media and link counts.
type Overview struct {
	Messages int
	Words    int
	Media    int
	Links    int
}

func FetchOverview(db *index.DB, f Filter) (Overview, error) {
	var ov Overview
	where, args := f.where()

	err := db.Raw().QueryRow(
		fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(is_media), 0) FROM messages WHERE %s", where),
		args...,
	).Scan(&ov.Messages, &ov.Media)
	if err != nil {
		return ov, err
	}

	// words and links need the bodies; media rows carry no text
	rows, err := db.Raw().Query(
		fmt.Sprintf("SELECT body FROM messages WHERE %s AND is_media = 0", where),
		args...,
	)
	if err != nil {
		return ov, err
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return ov, err
		}
		ov.Words += len(strings.Fields(body))
		ov.Links += len(urlPattern.FindAllString(body, -1))
	}
	return ov, rows.Err()
}

type SenderCount struct {
	Sender  string
	Count   int
	Percent float64
}

// BusyUsers returns the top n senders by message volume with their share
// of the chat, system notices excluded.
func BusyUsers(db *index.DB, chatKey string, n int) ([]SenderCount, error) {
	if n <= 0 {
		n = 5
	}
	var total int
	err := db.Raw().QueryRow(
		"SELECT COUNT(*) FROM messages WHERE chat_key = ? AND sender != ?",
		chatKey, systemSender,
	).Scan(&total)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	rows, err := db.Raw().Query(
		`SELECT sender, COUNT(*) AS n FROM messages
		 WHERE chat_key = ? AND sender != ?
		 GROUP BY sender ORDER BY n DESC, sender LIMIT ?`,
		chatKey, systemSender, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SenderCount
	for rows.Next() {
		var sc SenderCount
		if err := rows.Scan(&sc.Sender, &sc.Count); err != nil {
			return nil, err
		}
		sc.Percent = float64(sc.Count) / float64(total) * 100
		out = append(out, sc)
	}
	return out, rows.Err()
}

type TimelinePoint struct {
	Label string // "January 2023" or "2023-01-15"
	Count int
}

// MonthlyTimeline buckets messages by year+month in chronological order.
// Grouping on both prevents collapsing the same month across years.
func MonthlyTimeline(db *index.DB, f Filter) ([]TimelinePoint, error) {
	where, args := f.where()
	rows, err := db.Raw().Query(
		fmt.Sprintf(`SELECT year, month, COUNT(*) FROM messages WHERE %s
		 GROUP BY year, month_num ORDER BY year, month_num`, where),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelinePoint
	for rows.Next() {
		var year, count int
		var month string
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, err
		}
		out = append(out, TimelinePoint{Label: fmt.Sprintf("%s %d", month, year), Count: count})
	}
	return out, rows.Err()
}

// DailyTimeline buckets messages per calendar date.
func DailyTimeline(db *index.DB, f Filter) ([]TimelinePoint, error) {
	where, args := f.where()
	rows, err := db.Raw().Query(
		fmt.Sprintf("SELECT date, COUNT(*) FROM messages WHERE %s GROUP BY date ORDER BY date", where),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelinePoint
	for rows.Next() {
		var p TimelinePoint
		if err := rows.Scan(&p.Label, &p.Count); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var monthOrder = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WeekdayActivity returns message counts for Monday..Sunday, zero-filled.
func WeekdayActivity(db *index.DB, f Filter) ([]TimelinePoint, error) {
	return activityMap(db, f, "day_name", weekdayOrder)
}

// MonthActivity aggregates all instances of each month across years,
// exposing seasonal patterns.
func MonthActivity(db *index.DB, f Filter) ([]TimelinePoint, error) {
	return activityMap(db, f, "month", monthOrder)
}

func activityMap(db *index.DB, f Filter, column string, order []string) ([]TimelinePoint, error) {
	where, args := f.where()
	rows, err := db.Raw().Query(
		fmt.Sprintf("SELECT %s, COUNT(*) FROM messages WHERE %s GROUP BY %s", column, where, column),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TimelinePoint, 0, len(order))
	for _, label := range order {
		out = append(out, TimelinePoint{Label: label, Count: counts[label]})
	}
	return out, nil
}

// HourActivity returns message counts for hours 0..23, zero-filled.
func HourActivity(db *index.DB, f Filter) ([]TimelinePoint, error) {
	where, args := f.where()
	rows, err := db.Raw().Query(
		fmt.Sprintf("SELECT hour, COUNT(*) FROM messages WHERE %s GROUP BY hour", where),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts [24]int
	for rows.Next() {
		var hour, n int
		if err := rows.Scan(&hour, &n); err != nil {
			return nil, err
		}
		if hour >= 0 && hour < 24 {
			counts[hour] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TimelinePoint, 24)
	for h := range counts {
		out[h] = TimelinePoint{Label: fmt.Sprintf("%02d:00", h), Count: counts[h]}
	}
	return out, nil
}

// maxResponseGap bounds what still counts as a response; longer pauses are
// treated as a new conversation, not a slow reply.
const maxResponseGap = 12 * time.Hour

type ResponseGap struct {
	Sender    string
	Responses int
	Mean      time.Duration
	Median    time.Duration
}

// ResponseGaps measures, per sender, how long they take to respond when
// the previous message came from someone else. System notices break
// neither the sequence nor count as responses.
func ResponseGaps(db *index.DB, chatKey string) ([]ResponseGap, error) {
	rows, err := db.Raw().Query(
		"SELECT ts, sender FROM messages WHERE chat_key = ? AND sender != ? ORDER BY seq",
		chatKey, systemSender,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gaps := make(map[string][]time.Duration)
	var prevTs time.Time
	var prevSender string

	for rows.Next() {
		var tsStr, sender string
		if err := rows.Scan(&tsStr, &sender); err != nil {
			return nil, err
		}
		ts, err := time.Parse("2006-01-02T15:04:05", tsStr)
		if err != nil {
			continue
		}
		if prevSender != "" && prevSender != sender {
			gap := ts.Sub(prevTs)
			if gap >= 0 && gap <= maxResponseGap {
				gaps[sender] = append(gaps[sender], gap)
			}
		}
		prevTs, prevSender = ts, sender
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ResponseGap
	for sender, ds := range gaps {
		out = append(out, ResponseGap{
			Sender:    sender,
			Responses: len(ds),
			Mean:      meanDuration(ds),
			Median:    medianDuration(ds),
		})
	}
	sortGaps(out)
	return out, nil
}

func meanDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range ds {
		total += d
	}
	return total / time.Duration(len(ds))
}

func medianDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sortGaps(gaps []ResponseGap) {
	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Median != gaps[j].Median {
			return gaps[i].Median < gaps[j].Median
		}
		return gaps[i].Sender < gaps[j].Sender
	})
}
