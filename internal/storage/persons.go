package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tresorier/internal/core"
)

const personColumns = `p.id, p.lastname, p.firstname, p.gender, p.birthdate, p.email,
	p.phonenumber, p.phonenumber2, p.creation_date, p.password, p.is_member,
	p.image_rights, p.comments, p.address, p.zipcode, p.city`

type personScanner interface {
	Scan(dest ...any) error
}

func scanPerson(s personScanner, p *core.Person, extra ...any) error {
	var (
		birthdate, email, phone, phone2       sql.NullString
		creation, password, comments, address sql.NullString
		city                                  sql.NullString
		zipcode                               sql.NullInt64
	)
	dest := []any{&p.ID, &p.Lastname, &p.Firstname, &p.Gender, &birthdate, &email,
		&phone, &phone2, &creation, &password, &p.IsMember,
		&p.ImageRights, &comments, &address, &zipcode, &city}
	dest = append(dest, extra...)
	if err := s.Scan(dest...); err != nil {
		return fmt.Errorf("scan person: %w", err)
	}

	var err error
	if p.Birthdate, err = dateFromDB(birthdate); err != nil {
		return err
	}
	if creation.Valid && creation.String != "" {
		t, err := time.Parse(dateTimeLayout, creation.String)
		if err != nil {
			return fmt.Errorf("parse creation date %q: %w", creation.String, err)
		}
		p.CreationDate = t
	}
	p.Email = stringFromDB(email)
	p.PhoneNumber = stringFromDB(phone)
	p.PhoneNumber2 = stringFromDB(phone2)
	p.Password = stringFromDB(password)
	p.Comments = stringFromDB(comments)
	p.Address = stringFromDB(address)
	p.Zipcode = intPtrFromDB(zipcode)
	p.City = stringFromDB(city)
	return nil
}

// ListPersons returns persons with their membership count and total
// collected amount, optionally restricted to those holding a membership in
// a given fiscal year. Ordered by lastname then firstname.
func (r *Repository) ListPersons(ctx context.Context, filter core.MemberFilter) ([]core.PersonRow, error) {
	where, args := memberWhere(filter)
	query := `SELECT ` + personColumns + `,
	(
		SELECT COUNT(1)
		FROM membership m
		WHERE m.person_id = p.id
	) AS membership_count,
	(
		SELECT IFNULL(SUM(mc.amount), 0)
		FROM membership m
		LEFT JOIN membership_cotisation mc ON mc.membership_id = m.id
		WHERE m.person_id = p.id
	) AS collected_amount
	FROM person p` + where + " ORDER BY p.lastname ASC, p.firstname ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []core.PersonRow
	for rows.Next() {
		var row core.PersonRow
		if err := scanPerson(rows, &row.Person, &row.MembershipCount, &row.CollectedAmount); err != nil {
			return nil, err
		}
		persons = append(persons, row)
	}
	return persons, rows.Err()
}

func (r *Repository) GetPerson(ctx context.Context, id int64) (*core.Person, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+personColumns+" FROM person p WHERE p.id = ?", id)

	var p core.Person
	err := scanPerson(row, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "person", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePerson inserts or updates a person. On insert the creation date
// defaults to now when unset; on update an unset creation date keeps the
// stored one.
func (r *Repository) SavePerson(ctx context.Context, p *core.Person) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if p.ID != 0 {
			var creation any
			if !p.CreationDate.IsZero() {
				creation = p.CreationDate.UTC().Format(dateTimeLayout)
			}
			res, err := tx.ExecContext(ctx,
				`UPDATE person
				SET lastname = ?, firstname = ?, gender = ?, birthdate = ?, email = ?, phonenumber = ?,
				creation_date = COALESCE(?, creation_date), password = ?, is_member = ?, image_rights = ?,
				comments = ?, address = ?, zipcode = ?, city = ?, phonenumber2 = ?
				WHERE id = ?`,
				p.Lastname, p.Firstname, p.Gender, dateArg(p.Birthdate), p.Email, p.PhoneNumber,
				creation, p.Password, p.IsMember, p.ImageRights,
				p.Comments, p.Address, p.Zipcode, p.City, p.PhoneNumber2, p.ID)
			if err != nil {
				return fmt.Errorf("update person: %w", err)
			}
			return notFound(res, "person", p.ID)
		}

		if p.CreationDate.IsZero() {
			p.CreationDate = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO person
			(lastname, firstname, gender, birthdate, email, phonenumber, creation_date, password,
			is_member, image_rights, comments, address, zipcode, city, phonenumber2)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Lastname, p.Firstname, p.Gender, dateArg(p.Birthdate), p.Email, p.PhoneNumber,
			p.CreationDate.UTC().Format(dateTimeLayout), p.Password,
			p.IsMember, p.ImageRights, p.Comments, p.Address, p.Zipcode, p.City, p.PhoneNumber2)
		if err != nil {
			return fmt.Errorf("insert person: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("person insert id: %w", err)
		}
		p.ID = id
		return nil
	})
}

func (r *Repository) DeletePerson(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM membership WHERE person_id = ?", id).Scan(&count); err != nil {
			return fmt.Errorf("count person dependents: %w", err)
		}
		if count > 0 {
			return &core.ReferencedError{Entity: "person", Relation: "membership"}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM person WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete person: %w", err)
		}
		return notFound(res, "person", id)
	})
}

// SyncMemberFlags realigns person.is_member with membership existence.
// Membership saves force the flag on but nothing clears it when a person's
// last membership goes away; this recomputes it for everyone. Returns the
// number of rows whose flag changed.
func (r *Repository) SyncMemberFlags(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE person
		SET is_member = EXISTS (SELECT 1 FROM membership m WHERE m.person_id = person.id)
		WHERE is_member <> EXISTS (SELECT 1 FROM membership m WHERE m.person_id = person.id)`)
	if err != nil {
		return 0, fmt.Errorf("sync member flags: %w", err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sync member flags affected rows: %w", err)
	}
	return changed, nil
}
