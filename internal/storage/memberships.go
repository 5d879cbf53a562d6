package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tresorier/internal/core"
)

const membershipColumns = `m.id, m.person_id, m.lastname, m.firstname, m.gender, m.birthdate,
	m.address, m.zipcode, m.city, m.email, m.phonenumber, m.image_rights,
	m.membership_date, m.membership_type, m.fiscal_year_id, m.comments`

func scanMembership(s personScanner, m *core.Membership, extra ...any) error {
	var (
		lastname, firstname, birthdate sql.NullString
		address, city, email, phone    sql.NullString
		comments                       sql.NullString
		zipcode                        sql.NullInt64
		membershipDate                 sql.NullString
	)
	dest := []any{&m.ID, &m.PersonID, &lastname, &firstname, &m.Gender, &birthdate,
		&address, &zipcode, &city, &email, &phone, &m.ImageRights,
		&membershipDate, &m.MembershipType, &m.FiscalYearID, &comments}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return fmt.Errorf("scan membership: %w", err)
	}

	var err error
	if m.Birthdate, err = dateFromDB(birthdate); err != nil {
		return err
	}
	if m.MembershipDate, err = dateFromDB(membershipDate); err != nil {
		return err
	}
	m.Lastname = stringFromDB(lastname)
	m.Firstname = stringFromDB(firstname)
	m.Address = stringFromDB(address)
	m.Zipcode = intPtrFromDB(zipcode)
	m.City = stringFromDB(city)
	m.Email = stringFromDB(email)
	m.PhoneNumber = stringFromDB(phone)
	m.Comments = stringFromDB(comments)
	return nil
}

// ListMemberships returns memberships with their fiscal year title, the sum
// collected over their cotisation lines and the payment methods seen on
// those lines. The primary payment method is the most frequent one, ties
// broken by the highest method value.
func (r *Repository) ListMemberships(ctx context.Context, filter core.MembershipFilter) ([]core.MembershipRow, error) {
	where, args := membershipWhere(filter)
	query := `SELECT ` + membershipColumns + `,
	fy.title AS fiscal_year_title,
	(
		SELECT IFNULL(SUM(mc.amount), 0)
		FROM membership_cotisation mc
		WHERE mc.membership_id = m.id
	) AS collected_amount,
	(
		SELECT GROUP_CONCAT(DISTINCT mc.payment_method)
		FROM membership_cotisation mc
		WHERE mc.membership_id = m.id AND mc.payment_method IS NOT NULL
	) AS payment_methods,
	(
		SELECT mc.payment_method
		FROM membership_cotisation mc
		WHERE mc.membership_id = m.id AND mc.payment_method IS NOT NULL
		GROUP BY mc.payment_method
		ORDER BY COUNT(*) DESC, mc.payment_method DESC
		LIMIT 1
	) AS primary_payment_method
	FROM membership m
	JOIN person p ON p.id = m.person_id
	LEFT JOIN fiscal_year fy ON fy.id = m.fiscal_year_id` +
		where + membershipOrder(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []core.MembershipRow
	for rows.Next() {
		var row core.MembershipRow
		var title, methods sql.NullString
		var primary sql.NullInt64
		if err := scanMembership(rows, &row.Membership, &title, &row.CollectedAmount, &methods, &primary); err != nil {
			return nil, err
		}
		row.FiscalYearTitle = stringFromDB(title)
		if row.PaymentMethods, err = parsePaymentMethods(methods); err != nil {
			return nil, err
		}
		if primary.Valid {
			pm := core.PaymentMethod(primary.Int64)
			row.PrimaryPaymentMethod = &pm
		}
		memberships = append(memberships, row)
	}
	return memberships, rows.Err()
}

func parsePaymentMethods(concat sql.NullString) ([]core.PaymentMethod, error) {
	if !concat.Valid || concat.String == "" {
		return nil, nil
	}
	parts := strings.Split(concat.String, ",")
	methods := make([]core.PaymentMethod, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse payment method %q: %w", part, err)
		}
		methods = append(methods, core.PaymentMethod(v))
	}
	return methods, nil
}

// GetMembership returns one membership with its owning person and its
// cotisation lines ordered by date then cotisation id.
func (r *Repository) GetMembership(ctx context.Context, id int64) (*core.MembershipDetail, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+membershipColumns+" FROM membership m WHERE m.id = ?", id)

	var detail core.MembershipDetail
	err := scanMembership(row, &detail.Membership)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "membership", ID: id}
	}
	if err != nil {
		return nil, err
	}

	person, err := r.GetPerson(ctx, detail.PersonID)
	if err != nil {
		return nil, err
	}
	detail.Person = *person

	lines, err := r.db.QueryContext(ctx,
		`SELECT mc.cotisation_id, IFNULL(c.label, ''), mc.date, mc.amount, mc.payment_method
		FROM membership_cotisation mc
		LEFT JOIN cotisation c ON c.id = mc.cotisation_id
		WHERE mc.membership_id = ?
		ORDER BY mc.date ASC, mc.cotisation_id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("list membership lines: %w", err)
	}
	defer lines.Close()

	for lines.Next() {
		var line core.LineRow
		var date sql.NullString
		var method sql.NullInt64
		if err := lines.Scan(&line.CotisationID, &line.Label, &date, &line.Amount, &method); err != nil {
			return nil, fmt.Errorf("scan membership line: %w", err)
		}
		if line.Date, err = dateFromDB(date); err != nil {
			return nil, err
		}
		if method.Valid {
			pm := core.PaymentMethod(method.Int64)
			line.PaymentMethod = &pm
		}
		detail.Lines = append(detail.Lines, line)
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SaveMembership writes a person, their membership snapshot and the
// membership's cotisation lines as a single transaction. A zero person id
// creates the person as a member; existing lines are replaced by the
// included input lines. The input is updated with the assigned ids.
func (r *Repository) SaveMembership(ctx context.Context, in *core.MembershipInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveMembershipPerson(ctx, tx, in); err != nil {
			return err
		}
		if err := saveMembershipRow(ctx, tx, in); err != nil {
			return err
		}
		return replaceMembershipLines(ctx, tx, in)
	})
}

func saveMembershipPerson(ctx context.Context, tx *sql.Tx, in *core.MembershipInput) error {
	if in.PersonID != 0 {
		res, err := tx.ExecContext(ctx,
			`UPDATE person
			SET lastname = ?, firstname = ?, gender = ?, birthdate = ?, address = ?, zipcode = ?,
			city = ?, email = ?, phonenumber = ?, phonenumber2 = ?, image_rights = ?, is_member = 1
			WHERE id = ?`,
			in.Lastname, in.Firstname, in.Gender, dateArg(in.Birthdate), in.Address, in.Zipcode,
			in.City, in.Email, in.PhoneNumber, in.PhoneNumber2, in.ImageRights, in.PersonID)
		if err != nil {
			return fmt.Errorf("update member person: %w", err)
		}
		return notFound(res, "person", in.PersonID)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO person
		(lastname, firstname, gender, birthdate, address, zipcode, city, email,
		phonenumber, phonenumber2, image_rights, is_member, creation_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
		in.Lastname, in.Firstname, in.Gender, dateArg(in.Birthdate), in.Address, in.Zipcode,
		in.City, in.Email, in.PhoneNumber, in.PhoneNumber2, in.ImageRights,
		time.Now().UTC().Format(dateTimeLayout))
	if err != nil {
		return fmt.Errorf("insert member person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("member person insert id: %w", err)
	}
	in.PersonID = id
	return nil
}

func saveMembershipRow(ctx context.Context, tx *sql.Tx, in *core.MembershipInput) error {
	if in.ID != 0 {
		res, err := tx.ExecContext(ctx,
			`UPDATE membership
			SET person_id = ?, lastname = ?, firstname = ?, gender = ?, birthdate = ?, address = ?,
			zipcode = ?, city = ?, email = ?, phonenumber = ?, image_rights = ?,
			membership_date = ?, membership_type = ?, fiscal_year_id = ?, comments = ?
			WHERE id = ?`,
			in.PersonID, in.Lastname, in.Firstname, in.Gender, dateArg(in.Birthdate), in.Address,
			in.Zipcode, in.City, in.Email, in.PhoneNumber, in.ImageRights,
			in.MembershipDate.String(), in.MembershipType, in.FiscalYearID, in.Comments, in.ID)
		if err != nil {
			return fmt.Errorf("update membership: %w", err)
		}
		return notFound(res, "membership", in.ID)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO membership
		(person_id, lastname, firstname, gender, birthdate, address, zipcode, city, email,
		phonenumber, image_rights, membership_date, membership_type, fiscal_year_id, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.PersonID, in.Lastname, in.Firstname, in.Gender, dateArg(in.Birthdate), in.Address,
		in.Zipcode, in.City, in.Email, in.PhoneNumber, in.ImageRights,
		in.MembershipDate.String(), in.MembershipType, in.FiscalYearID, in.Comments)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("membership insert id: %w", err)
	}
	in.ID = id
	return nil
}

func replaceMembershipLines(ctx context.Context, tx *sql.Tx, in *core.MembershipInput) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM membership_cotisation WHERE membership_id = ?", in.ID); err != nil {
		return fmt.Errorf("clear membership lines: %w", err)
	}

	for _, line := range in.Lines {
		if !line.Included() {
			continue
		}
		date := line.Date
		if date.IsEmpty() {
			date = in.MembershipDate
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO membership_cotisation
			(membership_id, cotisation_id, date, amount, payment_method)
			VALUES (?, ?, ?, ?, ?)`,
			in.ID, line.CotisationID, date.String(), line.Amount, paymentMethodArg(line.PaymentMethod)); err != nil {
			return fmt.Errorf("insert membership line: %w", err)
		}
	}
	return nil
}

func paymentMethodArg(pm *core.PaymentMethod) any {
	if pm == nil {
		return nil
	}
	return int64(*pm)
}

// DeleteMembership removes a membership and its cotisation lines. The
// owning person stays.
func (r *Repository) DeleteMembership(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM membership_cotisation WHERE membership_id = ?", id); err != nil {
			return fmt.Errorf("delete membership lines: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM membership WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		return notFound(res, "membership", id)
	})
}
