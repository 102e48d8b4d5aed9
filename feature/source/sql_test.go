package source

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"dirsync/core/database"
	"dirsync/core/syncoptions"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestSQLSource_Query(t *testing.T) {
	db, mock := setupMockDB(t)
	task := &syncoptions.Task{
		Name:             "people",
		BinaryAttributes: []string{"jpegPhoto"},
		Source: syncoptions.SourceConfig{
			Query:     "SELECT dn, uid, cn, mail, jpegPhoto, description FROM people",
			KeyColumn: "DN",
		},
	}

	rows := sqlmock.NewRows([]string{"dn", "uid", "cn", "mail", "jpegPhoto", "description"}).
		AddRow("uid=alice,ou=People", "alice", "Alice", []byte("alice@example.com"), []byte{0xff, 0xd8}, nil).
		AddRow(nil, "bob", "Bob", nil, nil, int64(42))
	mock.ExpectQuery(regexp.QuoteMeta(task.Source.Query)).WillReturnRows(rows)

	src, err := NewSQLSource(db, task)
	require.NoError(t, err)

	beans, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, beans, 2)

	alice := beans[0]
	assert.Equal(t, "uid=alice,ou=People", alice.DN)
	assert.Nil(t, alice.Attribute("dn"), "the key column is not an attribute")
	assert.Equal(t, []string{"alice"}, alice.Attribute("uid").Strings())
	mail, _ := alice.Attribute("mail").First()
	assert.False(t, mail.IsBinary(), "byte columns are text unless declared binary")
	assert.Equal(t, "alice@example.com", mail.String())
	photo, _ := alice.Attribute("jpegphoto").First()
	assert.True(t, photo.IsBinary())
	assert.Equal(t, []byte{0xff, 0xd8}, photo.Bytes())
	assert.Nil(t, alice.Attribute("description"), "NULL columns are skipped")

	bob := beans[1]
	assert.Equal(t, "", bob.DN)
	assert.Equal(t, []string{"42"}, bob.Attribute("description").Strings())
	assert.Equal(t, []string{"uid", "cn", "description"}, bob.AttributeNames())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSource_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	task := &syncoptions.Task{Name: "people", Source: syncoptions.SourceConfig{Query: "SELECT uid FROM people"}}
	mock.ExpectQuery("SELECT uid FROM people").WillReturnError(errors.New("connection reset"))

	src, err := NewSQLSource(db, task)
	require.NoError(t, err)

	beans, err := src.List(context.Background())
	assert.Nil(t, beans)
	assert.ErrorContains(t, err, "failed to query source")
}

func TestNewSQLSource_Errors(t *testing.T) {
	db, _ := setupMockDB(t)

	_, err := NewSQLSource(nil, &syncoptions.Task{Name: "people"})
	assert.Error(t, err)

	_, err = NewSQLSource(db, &syncoptions.Task{Name: "people"})
	assert.ErrorIs(t, err, ErrNoQuery)
}

func TestSQLSource_TableDetectsBinaryColumns(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE people (uid TEXT, cn TEXT, photo BLOB)").Error)
	require.NoError(t, db.Exec("INSERT INTO people (uid, cn, photo) VALUES ('alice', 'Alice', X'FF00'), ('bob', NULL, NULL)").Error)

	src, err := NewSQLSource(db, &syncoptions.Task{Name: "people", Source: syncoptions.SourceConfig{Table: "people"}})
	require.NoError(t, err)

	beans, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, beans, 2)

	photo, ok := beans[0].Attribute("photo").First()
	require.True(t, ok)
	assert.True(t, photo.IsBinary())
	assert.Equal(t, []byte{0xff, 0x00}, photo.Bytes())
	assert.Equal(t, []string{"Alice"}, beans[0].Attribute("cn").Strings())

	assert.Equal(t, []string{"uid"}, beans[1].AttributeNames())
}
