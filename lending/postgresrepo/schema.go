package postgresrepo

// SchemaDDL creates the tables the repository reads and writes, if they do not exist yet.
const SchemaDDL = `
CREATE TABLE IF NOT EXISTS students (
    student_id BIGINT PRIMARY KEY CHECK (student_id > 0),
    name       TEXT   NOT NULL,
    address    TEXT   NOT NULL DEFAULT '',
    degree     TEXT   NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS books (
    book_id          BIGSERIAL PRIMARY KEY,
    isbn             TEXT    NOT NULL DEFAULT '',
    title            TEXT    NOT NULL,
    authors          TEXT    NOT NULL DEFAULT '',
    publisher        TEXT    NOT NULL DEFAULT '',
    number_of_pages  INTEGER NOT NULL CHECK (number_of_pages > 0),
    publication_date DATE    NULL,
    description      TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS book_copies (
    copy_id     BIGSERIAL PRIMARY KEY,
    book_id     BIGINT  NOT NULL REFERENCES books (book_id),
    barcode     TEXT    NOT NULL,
    location    TEXT    NOT NULL DEFAULT '',
    is_borrowed BOOLEAN NOT NULL DEFAULT FALSE,
    CONSTRAINT book_copies_barcode_key UNIQUE (barcode)
);

CREATE TABLE IF NOT EXISTS loans (
    loan_id     BIGSERIAL PRIMARY KEY,
    student_id  BIGINT NOT NULL REFERENCES students (student_id),
    borrow_date DATE   NOT NULL,
    due_date    DATE   NOT NULL,
    return_date DATE   NULL,
    CHECK (due_date >= borrow_date)
);

CREATE TABLE IF NOT EXISTS loan_book_copies (
    loan_id BIGINT NOT NULL REFERENCES loans (loan_id) ON DELETE CASCADE,
    copy_id BIGINT NOT NULL REFERENCES book_copies (copy_id) ON DELETE CASCADE,
    PRIMARY KEY (loan_id, copy_id)
);

CREATE INDEX IF NOT EXISTS loans_student_open_idx ON loans (student_id) WHERE return_date IS NULL;
CREATE INDEX IF NOT EXISTS loan_book_copies_copy_idx ON loan_book_copies (copy_id);
`
